package language

import "github.com/ieee0824/ctcdecode-go/internal/mathutil"

// Sentence boundary and unknown-word tokens.
const (
	BeginSentence = "<s>"
	EndSentence   = "</s>"
	Unknown       = "<unk>"
)

// NGramModel represents a back-off n-gram language model of order 1 to 3.
// All probabilities are natural-log. The model is read-only once loaded and
// may be shared between goroutines.
type NGramModel struct {
	Order    int                   // 1 unigram, 2 bigram, 3 trigram
	Unigrams map[string]ngramEntry // word -> entry
	Bigrams  map[[2]string]ngramEntry
	Trigrams map[[3]string]ngramEntry

	// OOVLogProb is returned for words missing from the vocabulary when the
	// model has no <unk> unigram. 0 means log(0).
	OOVLogProb float64
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty n-gram model.
func NewNGramModel(order int) *NGramModel {
	return &NGramModel{
		Order:    order,
		Unigrams: make(map[string]ngramEntry),
		Bigrams:  make(map[[2]string]ngramEntry),
		Trigrams: make(map[[3]string]ngramEntry),
	}
}

// State is an n-gram context: the last Order-1 words seen.
// The zero State is the empty context.
type State struct {
	hist [2]string
	n    int
}

// History returns the context words, oldest first.
func (s State) History() []string {
	return append([]string(nil), s.hist[:s.n]...)
}

// BeginState returns the begin-of-sentence context.
func (m *NGramModel) BeginState() State {
	return m.advance(State{}, BeginSentence)
}

// Score returns the log probability of word in context s and the context
// advanced by word.
func (m *NGramModel) Score(s State, word string) (float64, State) {
	lp := m.LogProb(s.hist[:s.n], word)
	return lp, m.advance(s, word)
}

func (m *NGramModel) advance(s State, word string) State {
	keep := m.Order - 1
	if keep > len(s.hist) {
		keep = len(s.hist)
	}
	if keep <= 0 {
		return State{}
	}
	if s.n < keep {
		s.hist[s.n] = word
		s.n++
		return s
	}
	copy(s.hist[:keep-1], s.hist[1:keep])
	s.hist[keep-1] = word
	s.n = keep
	return s
}

// Has reports whether word is in the unigram vocabulary.
func (m *NGramModel) Has(word string) bool {
	_, ok := m.Unigrams[word]
	return ok
}

// UnknownLogProb returns the log probability assigned to out-of-vocabulary words.
func (m *NGramModel) UnknownLogProb() float64 {
	if e, ok := m.Unigrams[Unknown]; ok {
		return e.LogProb
	}
	if m.OOVLogProb != 0 {
		return m.OOVLogProb
	}
	return mathutil.LogZero
}

// MinWordLogProb returns the lowest unigram log probability of a vocabulary
// word. Sentence markers and <unk> are not words. ok is false when the model
// has no words.
func (m *NGramModel) MinWordLogProb() (lp float64, ok bool) {
	for w, e := range m.Unigrams {
		if w == BeginSentence || w == EndSentence || w == Unknown {
			continue
		}
		if !ok || e.LogProb < lp {
			lp, ok = e.LogProb, true
		}
	}
	return lp, ok
}

// LogProb returns the log probability of a word given its history.
// Uses backoff when the exact n-gram is not found.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	if m.Order >= 3 && len(history) >= 2 {
		key := [3]string{history[len(history)-2], history[len(history)-1], word}
		if e, ok := m.Trigrams[key]; ok {
			return e.LogProb
		}
		biKey := [2]string{history[len(history)-2], history[len(history)-1]}
		if e, ok := m.Bigrams[biKey]; ok {
			return e.LogBackoff + m.logProbBigram(history[len(history)-1], word)
		}
	}

	if m.Order >= 2 && len(history) >= 1 {
		return m.logProbBigram(history[len(history)-1], word)
	}

	return m.logProbUnigram(word)
}

func (m *NGramModel) logProbBigram(prev, word string) float64 {
	if e, ok := m.Bigrams[[2]string{prev, word}]; ok {
		return e.LogProb
	}
	if e, ok := m.Unigrams[prev]; ok {
		return e.LogBackoff + m.logProbUnigram(word)
	}
	return m.logProbUnigram(word)
}

func (m *NGramModel) logProbUnigram(word string) float64 {
	if e, ok := m.Unigrams[word]; ok {
		return e.LogProb
	}
	return m.UnknownLogProb()
}

// SentenceLogProb returns the total log probability of a word sequence,
// including the <s> and </s> boundaries.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	s := m.BeginState()
	for _, w := range words {
		lp, next := m.Score(s, w)
		total += lp
		s = next
	}
	lp, _ := m.Score(s, EndSentence)
	return total + lp
}

// Vocab returns all words in the unigram vocabulary.
func (m *NGramModel) Vocab() []string {
	words := make([]string, 0, len(m.Unigrams))
	for w := range m.Unigrams {
		words = append(words, w)
	}
	return words
}
