package language

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"
)

const binaryVersion = 1

// serializable types for gob encoding
type serializedModel struct {
	Version    int
	Order      int
	OOVLogProb float64
	Grams      []serializedGram
}

type serializedGram struct {
	Words      []string
	LogProb    float64
	LogBackoff float64
}

// Save serializes the model to a writer using gob encoding.
// N-grams are written in sorted order so equal models produce equal bytes.
func (m *NGramModel) Save(w io.Writer) error {
	sm := serializedModel{
		Version:    binaryVersion,
		Order:      m.Order,
		OOVLogProb: m.OOVLogProb,
		Grams:      make([]serializedGram, 0, len(m.Unigrams)+len(m.Bigrams)+len(m.Trigrams)),
	}
	for w, e := range m.Unigrams {
		sm.Grams = append(sm.Grams, serializedGram{[]string{w}, e.LogProb, e.LogBackoff})
	}
	for k, e := range m.Bigrams {
		sm.Grams = append(sm.Grams, serializedGram{[]string{k[0], k[1]}, e.LogProb, e.LogBackoff})
	}
	for k, e := range m.Trigrams {
		sm.Grams = append(sm.Grams, serializedGram{[]string{k[0], k[1], k[2]}, e.LogProb, e.LogBackoff})
	}
	sort.Slice(sm.Grams, func(i, j int) bool {
		a, b := sm.Grams[i].Words, sm.Grams[j].Words
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return gob.NewEncoder(w).Encode(sm)
}

// Load reads a language model in either ARPA text or binary form.
func Load(r io.Reader) (*NGramModel, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	if isARPA(head) {
		return LoadARPA(br)
	}
	return loadBinary(br)
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*NGramModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func isARPA(head []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("\\data\\"))
}

func loadBinary(r io.Reader) (*NGramModel, error) {
	var sm serializedModel
	if err := gob.NewDecoder(r).Decode(&sm); err != nil {
		return nil, fmt.Errorf("decode binary model: %w", err)
	}
	if sm.Version != binaryVersion {
		return nil, fmt.Errorf("unsupported binary model version %d", sm.Version)
	}
	if sm.Order < 1 || sm.Order > MaxOrder {
		return nil, fmt.Errorf("unsupported n-gram order %d", sm.Order)
	}

	m := NewNGramModel(sm.Order)
	m.OOVLogProb = sm.OOVLogProb
	for _, g := range sm.Grams {
		e := ngramEntry{LogProb: g.LogProb, LogBackoff: g.LogBackoff}
		switch len(g.Words) {
		case 1:
			m.Unigrams[g.Words[0]] = e
		case 2:
			m.Bigrams[[2]string{g.Words[0], g.Words[1]}] = e
		case 3:
			m.Trigrams[[3]string{g.Words[0], g.Words[1], g.Words[2]}] = e
		default:
			return nil, fmt.Errorf("bad n-gram of length %d", len(g.Words))
		}
	}
	if len(m.Unigrams) == 0 {
		return nil, fmt.Errorf("empty unigram section")
	}
	return m, nil
}
