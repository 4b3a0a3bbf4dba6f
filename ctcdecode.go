// Package ctcdecode decodes the output of CTC-trained sequence models with
// prefix beam search, optionally guided by an n-gram language model and a
// lexicon trie.
package ctcdecode

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ieee0824/ctcdecode-go/decoder"
	"github.com/ieee0824/ctcdecode-go/internal/metrics"
	"github.com/ieee0824/ctcdecode-go/language"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/scorer"
	"github.com/ieee0824/ctcdecode-go/trie"
)

// Option configures NewBeamDecoder.
type Option func(*options)

type options struct {
	cfg  decoder.Config
	opts []decoder.Option
}

// WithTopPaths sets the number of paths returned per batch item.
func WithTopPaths(n int) Option {
	return func(o *options) { o.cfg.TopPaths = n }
}

// WithBeamWidth sets the number of hypotheses kept per timestep.
func WithBeamWidth(n int) Option {
	return func(o *options) { o.cfg.BeamWidth = n }
}

// WithBlankIndex sets the CTC blank label.
func WithBlankIndex(i int) Option {
	return func(o *options) { o.cfg.BlankIndex = i }
}

// WithSpaceIndex sets the word boundary label.
func WithSpaceIndex(i int) Option {
	return func(o *options) { o.cfg.SpaceIndex = i }
}

// WithMergeRepeated sets whether a label repeated after a blank collapses.
func WithMergeRepeated(merge bool) Option {
	return func(o *options) { o.cfg.MergeRepeated = merge }
}

// WithWorkers bounds the batch items decoded in parallel.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithLogger sets the decoder logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.opts = append(o.opts, decoder.WithLogger(l)) }
}

// WithMetrics records decode calls on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.opts = append(o.opts, decoder.WithMetrics(m)) }
}

// NewMetrics registers the decoder metrics on reg.
func NewMetrics(reg prometheus.Registerer) *metrics.Metrics {
	return metrics.NewMetrics(reg)
}

// NewBeamDecoder creates a beam search decoder over labels scored by sc.
// Defaults: 1 path, beam width 10, blank 0, space 28, repeats merged.
func NewBeamDecoder(sc scorer.Scorer, labels []string, opts ...Option) (*decoder.Decoder, error) {
	o := &options{cfg: decoder.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	return decoder.New(labels, sc, o.cfg, o.opts...)
}

// NewScorer returns the scorer that leaves acoustic scores untouched.
func NewScorer() *scorer.Baseline {
	return scorer.NewBaseline()
}

// NewKenLMScorer loads a language model (ARPA or binary) and a trie artifact
// built by GenerateLMTrie for the same labels.
func NewKenLMScorer(labels []string, lmPath, triePath string, blank, space int, opts ...scorer.Option) (*scorer.LM, error) {
	alpha, err := lexicon.NewAlphabet(labels, blank, space)
	if err != nil {
		return nil, err
	}
	lm, err := language.LoadFile(lmPath)
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}
	t, err := trie.LoadFile(triePath)
	if err != nil {
		return nil, fmt.Errorf("load trie: %w", err)
	}
	if !t.Alphabet().Equal(alpha) {
		return nil, fmt.Errorf("%w: trie %s was built for labels %q", scorer.ErrIncompatible, triePath, t.Alphabet().Labels())
	}
	return scorer.NewLM(lm, t, opts...)
}

// GenerateLMTrie builds the lexicon trie for a dictionary and language model
// and writes it to outputPath. Nothing is written on failure.
func GenerateLMTrie(dictPath, lmPath, outputPath string, labels []string, blank, space int, opts ...trie.BuildOption) error {
	alpha, err := lexicon.NewAlphabet(labels, blank, space)
	if err != nil {
		return fmt.Errorf("%w: %w", trie.ErrBuild, err)
	}
	t, err := trie.BuildFiles(dictPath, lmPath, alpha, opts...)
	if err != nil {
		return err
	}
	if err := t.WriteFile(outputPath); err != nil {
		return fmt.Errorf("write trie: %w", err)
	}
	return nil
}
