package lexicon

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultLabels is the English character set used when no alphabet is given:
// blank at index 0, apostrophe, A-Z, and space at index 28.
const DefaultLabels = "_'ABCDEFGHIJKLMNOPQRSTUVWXYZ "

// Default reserved indices for DefaultLabels.
const (
	DefaultBlankIndex = 0
	DefaultSpaceIndex = 28
)

var (
	// ErrInvalidAlphabet is returned for label sets that cannot be used for decoding.
	ErrInvalidAlphabet = errors.New("invalid alphabet")
	// ErrUnknownLabel is returned when text contains a character outside the alphabet.
	ErrUnknownLabel = errors.New("character not in alphabet")
)

// Alphabet maps between label indices and their text.
type Alphabet struct {
	labels   []string
	index    map[string]int
	blank    int
	space    int
	maxRunes int
}

// NewAlphabet creates an alphabet from per-label strings.
// blank must lie within [0, len(labels)). A space index outside that range
// disables word boundaries, which is only valid without a language model.
func NewAlphabet(labels []string, blank, space int) (*Alphabet, error) {
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidAlphabet)
	}
	if blank < 0 || blank >= n {
		return nil, fmt.Errorf("%w: blank_index %d must be within num_classes %d", ErrInvalidAlphabet, blank, n)
	}
	if space < 0 || space >= n {
		space = -1
	}
	if space == blank {
		return nil, fmt.Errorf("%w: space_index and blank_index are both %d", ErrInvalidAlphabet, blank)
	}

	a := &Alphabet{
		labels: make([]string, n),
		index:  make(map[string]int, n),
		blank:  blank,
		space:  space,
	}
	for i, l := range labels {
		l = norm.NFC.String(l)
		a.labels[i] = l
		if i == blank || l == "" {
			continue
		}
		if prev, dup := a.index[l]; dup {
			return nil, fmt.Errorf("%w: label %q at %d and %d", ErrInvalidAlphabet, l, prev, i)
		}
		a.index[l] = i
		if r := utf8.RuneCountInString(l); r > a.maxRunes {
			a.maxRunes = r
		}
	}
	return a, nil
}

// AlphabetFromString creates an alphabet with one label per rune of s.
func AlphabetFromString(s string, blank, space int) (*Alphabet, error) {
	return NewAlphabet(SplitLabels(s), blank, space)
}

// SplitLabels returns one label per rune of s.
func SplitLabels(s string) []string {
	labels := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		labels = append(labels, string(r))
	}
	return labels
}

// Size returns the number of classes, including blank.
func (a *Alphabet) Size() int { return len(a.labels) }

// Blank returns the blank label index.
func (a *Alphabet) Blank() int { return a.blank }

// Space returns the space label index, or -1 if word boundaries are disabled.
func (a *Alphabet) Space() int { return a.space }

// HasSpace reports whether the alphabet has a word-boundary label.
func (a *Alphabet) HasSpace() bool { return a.space >= 0 }

// Label returns the text of label i, or "" when i is out of range.
func (a *Alphabet) Label(i int) string {
	if i < 0 || i >= len(a.labels) {
		return ""
	}
	return a.labels[i]
}

// Labels returns a copy of the label strings.
func (a *Alphabet) Labels() []string {
	return append([]string(nil), a.labels...)
}

// Equal reports whether b has the same labels and reserved indices.
func (a *Alphabet) Equal(b *Alphabet) bool {
	if a.blank != b.blank || a.space != b.space || len(a.labels) != len(b.labels) {
		return false
	}
	for i := range a.labels {
		if a.labels[i] != b.labels[i] {
			return false
		}
	}
	return true
}

// Encode maps text onto label indices, preferring the longest matching label.
// The blank label is never produced.
func (a *Alphabet) Encode(text string) ([]int, error) {
	runes := []rune(norm.NFC.String(text))
	out := make([]int, 0, len(runes))
	for i := 0; i < len(runes); {
		matched := false
		for k := min(a.maxRunes, len(runes)-i); k >= 1; k-- {
			if idx, ok := a.index[string(runes[i:i+k])]; ok {
				out = append(out, idx)
				i += k
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownLabel, runes[i], text)
		}
	}
	return out, nil
}

// Decode maps label indices back to text, skipping blanks and out-of-range labels.
func (a *Alphabet) Decode(labels []int) string {
	var sb strings.Builder
	for _, l := range labels {
		if l == a.blank || l < 0 || l >= len(a.labels) {
			continue
		}
		sb.WriteString(a.labels[l])
	}
	return sb.String()
}
