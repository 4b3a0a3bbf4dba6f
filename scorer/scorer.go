// Package scorer provides the language model scoring used by the beam
// decoder. Two implementations exist: Baseline, which never changes a
// hypothesis score, and LM, which combines a lexicon trie with an n-gram
// language model.
package scorer

import (
	"errors"

	"github.com/ieee0824/ctcdecode-go/language"
	"github.com/ieee0824/ctcdecode-go/lexicon"
	"github.com/ieee0824/ctcdecode-go/trie"
)

// ErrIncompatible is returned when a scorer cannot serve a decoder's alphabet.
var ErrIncompatible = errors.New("scorer incompatible with decoder alphabet")

// State is the language model continuation carried by one hypothesis.
// The zero State is what Baseline uses.
type State struct {
	node *trie.Node     // nil once the prefix left the lexicon
	ctx  language.State // n-gram context of completed words
	word string         // characters of the pending word
	look float64        // lookahead credited for the pending word
}

// Word returns the pending, not yet completed, word.
func (s State) Word() string { return s.word }

// InLexicon reports whether the pending word is still a lexicon prefix.
func (s State) InLexicon() bool { return s.node != nil }

// Snapshot is a consistent view of a scorer for the duration of one decode
// call. It is safe for concurrent use and must be released exactly once.
type Snapshot interface {
	// Initial returns the state of the empty prefix.
	Initial() State
	// Expand appends label to the prefix described by from and returns the
	// new state with the score delta to add to the hypothesis.
	Expand(from State, label int) (State, float64)
	// Finish returns the delta for ending the sequence in state s.
	Finish(s State) float64
	// Release ends the snapshot.
	Release()
}

// Scorer is implemented only by Baseline and LM.
type Scorer interface {
	// Acquire pins the current configuration. Reconfiguration waits until
	// every acquired snapshot has been released.
	Acquire() Snapshot
	compatible(alpha *lexicon.Alphabet) error
}

// Compatible reports whether s can score hypotheses over alpha.
func Compatible(s Scorer, alpha *lexicon.Alphabet) error {
	return s.compatible(alpha)
}
