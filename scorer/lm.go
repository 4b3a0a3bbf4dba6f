package scorer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ieee0824/ctcdecode-go/internal/metrics"
	"github.com/ieee0824/ctcdecode-go/language"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/trie"
)

// DefaultOOVScore is the natural-log score of a word the language model does
// not know, used when the model carries no <unk> unigram.
const DefaultOOVScore = -10.0

// OOVMargin is how far the OOV score is kept below the rarest vocabulary
// word, so an unknown word never outranks a known one.
const OOVMargin = 1.0

// ErrInvalidWeight is returned for NaN or infinite weights.
var ErrInvalidWeight = errors.New("invalid scorer weight")

// Weights scale the language model contributions.
type Weights struct {
	LM        float64 // scale of n-gram and lookahead log probabilities
	Word      float64 // bonus per completed word
	ValidWord float64 // extra bonus per completed lexicon word
	OOV       float64 // log probability of out-of-vocabulary words, capped by the model
}

// DefaultWeights returns LM 1, no word bonuses and DefaultOOVScore.
func DefaultWeights() Weights {
	return Weights{LM: 1.0, OOV: DefaultOOVScore}
}

func (w Weights) validate() error {
	for _, v := range []float64{w.LM, w.Word, w.ValidWord, w.OOV} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidWeight, v)
		}
	}
	return nil
}

// Option configures an LM scorer.
type Option func(*LM)

// WithWeights sets the initial weights.
func WithWeights(w Weights) Option {
	return func(s *LM) { s.w = w }
}

// WithLogger sets the logger used to report reconfiguration.
func WithLogger(l zerolog.Logger) Option {
	return func(s *LM) { s.log = l }
}

// WithMetrics counts reconfigurations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LM) { s.metrics = m }
}

// LM scores prefixes with a lexicon trie while a word is pending and with
// an n-gram model once it is completed by the space label.
//
// Weight setters take an exclusive lock, so they wait for decodes holding a
// snapshot and are visible to every decode that acquires one afterwards.
type LM struct {
	mu sync.RWMutex
	w  Weights

	lm      *language.NGramModel
	trie    *trie.Trie
	alpha   *lexicon.Alphabet
	oovCap  float64 // OOV scores are clamped to at most this
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewLM creates a scorer over lm and t. The alphabet is the one the trie was
// built for and must define a space label.
func NewLM(lm *language.NGramModel, t *trie.Trie, opts ...Option) (*LM, error) {
	if lm == nil || t == nil {
		return nil, fmt.Errorf("%w: language model and trie are required", ErrIncompatible)
	}
	alpha := t.Alphabet()
	if !alpha.HasSpace() {
		return nil, fmt.Errorf("%w: alphabet has no space label", ErrIncompatible)
	}

	w := DefaultWeights()
	if lm.Has(language.Unknown) {
		w.OOV = lm.UnknownLogProb()
	}
	s := &LM{w: w, lm: lm, trie: t, alpha: alpha, oovCap: math.Inf(1), log: zerolog.Nop()}
	if lo, ok := lm.MinWordLogProb(); ok {
		s.oovCap = lo - OOVMargin
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.w.validate(); err != nil {
		return nil, err
	}
	s.w.OOV = min(s.w.OOV, s.oovCap)
	return s, nil
}

// Alphabet returns the alphabet the scorer expects.
func (s *LM) Alphabet() *lexicon.Alphabet { return s.alpha }

// Weights returns the current weights.
func (s *LM) Weights() Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w
}

// SetLMWeight sets the language model scale.
func (s *LM) SetLMWeight(v float64) error {
	return s.update(func(w *Weights) { w.LM = v })
}

// SetWordWeight sets the per-word bonus.
func (s *LM) SetWordWeight(v float64) error {
	return s.update(func(w *Weights) { w.Word = v })
}

// SetValidWordWeight sets the bonus for words found in the lexicon.
func (s *LM) SetValidWordWeight(v float64) error {
	return s.update(func(w *Weights) { w.ValidWord = v })
}

// SetOOVScore sets the log probability used for unknown words. Values above
// the rarest vocabulary word minus OOVMargin are lowered to that bound.
func (s *LM) SetOOVScore(v float64) error {
	return s.update(func(w *Weights) { w.OOV = v })
}

func (s *LM) update(fn func(*Weights)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.w
	fn(&next)
	if err := next.validate(); err != nil {
		return err
	}
	next.OOV = min(next.OOV, s.oovCap)
	s.w = next
	s.metrics.RecordReconfigure()
	s.log.Debug().
		Float64("lm_weight", next.LM).
		Float64("word_weight", next.Word).
		Float64("valid_word_weight", next.ValidWord).
		Float64("oov_score", next.OOV).
		Msg("scorer reconfigured")
	return nil
}

// Acquire implements Scorer. The read lock is held until Release.
func (s *LM) Acquire() Snapshot {
	s.mu.RLock()
	return &lmSnapshot{s: s, w: s.w}
}

func (s *LM) compatible(alpha *lexicon.Alphabet) error {
	if !s.alpha.Equal(alpha) {
		return fmt.Errorf("%w: trie alphabet %q (blank %d, space %d) differs from decoder alphabet %q (blank %d, space %d)",
			ErrIncompatible, s.alpha.Labels(), s.alpha.Blank(), s.alpha.Space(),
			alpha.Labels(), alpha.Blank(), alpha.Space())
	}
	return nil
}

type lmSnapshot struct {
	s    *LM
	w    Weights
	once sync.Once
}

func (p *lmSnapshot) Initial() State {
	return State{node: p.s.trie.Root(), ctx: p.s.lm.BeginState()}
}

func (p *lmSnapshot) Expand(from State, label int) (State, float64) {
	switch label {
	case p.s.alpha.Blank():
		return from, 0
	case p.s.alpha.Space():
		return p.complete(from)
	}

	next := from
	next.word += p.s.alpha.Label(label)
	next.node = from.node.Child(label)
	next.look = max(next.node.Lookahead(), p.w.OOV)
	return next, p.w.LM * (next.look - from.look)
}

// complete scores the pending word in context and resets to the trie root.
// Without a pending word it is a no-op.
func (p *lmSnapshot) complete(s State) (State, float64) {
	if s.word == "" {
		return s, 0
	}
	lp, ctx := p.s.lm.Score(s.ctx, s.word)
	if !p.s.lm.Has(s.word) {
		lp = p.w.OOV
	}
	delta := p.w.LM*(lp-s.look) + p.w.Word
	if s.node.Terminal() {
		delta += p.w.ValidWord
	}
	return State{node: p.s.trie.Root(), ctx: ctx}, delta
}

func (p *lmSnapshot) Finish(s State) float64 {
	s, delta := p.complete(s)
	if p.s.lm.Has(language.EndSentence) {
		lp, _ := p.s.lm.Score(s.ctx, language.EndSentence)
		delta += p.w.LM * lp
	}
	return delta
}

func (p *lmSnapshot) Release() {
	p.once.Do(p.s.mu.RUnlock)
}
