package trie

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieee0824/ctcdecode-go/internal/metrics"
	"github.com/ieee0824/ctcdecode-go/language"
	"github.com/ieee0824/ctcdecode-go/lexicon"
)

// ErrBuild is returned when a trie cannot be constructed. It wraps the
// underlying cause together with the offending word or file.
var ErrBuild = errors.New("trie build failed")

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// WithLogger sets the logger used to report build progress.
func WithLogger(l zerolog.Logger) BuildOption {
	return func(o *buildOptions) { o.log = l }
}

// WithMetrics records build outcomes on m.
func WithMetrics(m *metrics.Metrics) BuildOption {
	return func(o *buildOptions) { o.metrics = m }
}

// Build maps every dictionary word through alpha and inserts it, caching the
// word's unigram log probability from lm along the path. Nothing is returned
// unless every word could be inserted.
func Build(words []string, lm *language.NGramModel, alpha *lexicon.Alphabet, opts ...BuildOption) (*Trie, error) {
	return newBuildOptions(opts).build(words, lm, alpha)
}

// BuildFiles loads a dictionary word list and a language model (ARPA or
// binary) and builds a trie from them.
func BuildFiles(dictPath, lmPath string, alpha *lexicon.Alphabet, opts ...BuildOption) (*Trie, error) {
	o := newBuildOptions(opts)
	words, err := lexicon.LoadWordsFile(dictPath)
	if err != nil {
		err = fmt.Errorf("%w: dictionary %s: %w", ErrBuild, dictPath, err)
		o.fail(err)
		return nil, err
	}
	lm, err := language.LoadFile(lmPath)
	if err != nil {
		err = fmt.Errorf("%w: language model %s: %w", ErrBuild, lmPath, err)
		o.fail(err)
		return nil, err
	}
	o.log.Debug().Str("dict", dictPath).Int("words", len(words)).Int("order", lm.Order).Msg("inputs loaded")
	return o.build(words, lm, alpha)
}

func newBuildOptions(opts []BuildOption) *buildOptions {
	o := &buildOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *buildOptions) fail(err error) {
	o.metrics.RecordTrieBuild(0, 0, err)
	o.log.Error().Err(err).Msg("trie build failed")
}

func (o *buildOptions) build(words []string, lm *language.NGramModel, alpha *lexicon.Alphabet) (*Trie, error) {
	began := time.Now()
	t, skipped, err := insertAll(words, lm, alpha)
	if err != nil {
		o.fail(err)
		return nil, err
	}
	o.metrics.RecordTrieBuild(t.Len(), skipped, nil)
	o.log.Info().
		Int("words", t.Len()).
		Int("nodes", t.NodeCount()).
		Int("duplicates", skipped).
		Dur("elapsed", time.Since(began)).
		Msg("trie built")
	return t, nil
}

func insertAll(words []string, lm *language.NGramModel, alpha *lexicon.Alphabet) (*Trie, int, error) {
	if alpha == nil {
		return nil, 0, fmt.Errorf("%w: no alphabet", ErrBuild)
	}
	if lm == nil {
		return nil, 0, fmt.Errorf("%w: no language model", ErrBuild)
	}

	t := New(alpha)
	skipped := 0
	for _, w := range words {
		labels, err := alpha.Encode(w)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: word %q: %w", ErrBuild, w, err)
		}
		if n, ok := t.Lookup(labels); ok && n.Terminal() {
			skipped++
			continue
		}
		// Empty history: the unigram, or the unknown-word score for OOV entries.
		if err := t.Insert(w, labels, lm.LogProb(nil, w)); err != nil {
			return nil, 0, fmt.Errorf("%w: word %q: %w", ErrBuild, w, err)
		}
	}
	return t, skipped, nil
}
