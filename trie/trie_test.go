package trie

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ieee0824/ctcdecode-go/language"
	"github.com/ieee0824/ctcdecode-go/lexicon"
)

const testARPA = `\data\
ngram 1=6

\1-grams:
-1.0	</s>
-1.0	<s>
-0.5	ab
-0.9	abba
-1.2	ba
-3.0	<unk>

\end\
`

func testAlphabet(t *testing.T) *lexicon.Alphabet {
	t.Helper()
	a, err := lexicon.AlphabetFromString("_ab ", 0, 3)
	if err != nil {
		t.Fatalf("AlphabetFromString error: %v", err)
	}
	return a
}

func testLM(t *testing.T) *language.NGramModel {
	t.Helper()
	lm, err := language.LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	return lm
}

func TestInsertLookup(t *testing.T) {
	tr := New(testAlphabet(t))
	if err := tr.Insert("ab", []int{1, 2}, -1); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := tr.Insert("abb", []int{1, 2, 2}, -3); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	n, ok := tr.Lookup([]int{1, 2})
	if !ok || !n.Terminal() || n.Word() != "ab" {
		t.Fatalf("Lookup(ab) = %v, %v", n, ok)
	}
	if n.Lookahead() != -1 {
		t.Errorf("Lookahead(ab) = %v, want -1", n.Lookahead())
	}

	prefix, ok := tr.Lookup([]int{1})
	if !ok || prefix.Terminal() {
		t.Errorf("Lookup(a) terminal = %v, ok = %v; want prefix node", prefix.Terminal(), ok)
	}
	if _, ok := tr.Lookup([]int{2}); ok {
		t.Error("Lookup(b) found, want not found")
	}
	if tr.Len() != 2 || tr.NodeCount() != 4 {
		t.Errorf("Len = %d, NodeCount = %d; want 2, 4", tr.Len(), tr.NodeCount())
	}
	if prefix.Child(2) != n {
		t.Error("Child(b) of a does not reach ab")
	}
	var missing *Node
	if missing.Child(1) != nil || missing.Terminal() {
		t.Error("nil node must behave as an empty node")
	}
}

func TestInsertRejectsReservedLabels(t *testing.T) {
	tr := New(testAlphabet(t))
	tests := []struct {
		name   string
		labels []int
	}{
		{"empty", nil},
		{"blank", []int{1, 0}},
		{"space", []int{1, 3, 2}},
		{"out_of_range", []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.Insert("x", tt.labels, 0); !errors.Is(err, ErrInvalidWord) {
				t.Errorf("Insert err = %v, want ErrInvalidWord", err)
			}
		})
	}
	if tr.Len() != 0 {
		t.Errorf("Len = %d after failed inserts, want 0", tr.Len())
	}
}

func TestBuildRoundTrip(t *testing.T) {
	alpha := testAlphabet(t)
	words := []string{"ab", "abba", "ba", "bab"}
	tr, err := Build(words, testLM(t), alpha)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	for _, w := range words {
		labels, _ := alpha.Encode(w)
		n, ok := tr.Lookup(labels)
		if !ok || !n.Terminal() {
			t.Errorf("Lookup(%q) not terminal", w)
			continue
		}
		if n.Word() != w {
			t.Errorf("Word = %q, want %q", n.Word(), w)
		}
	}

	// "bab" is not in the LM: it must carry the <unk> score.
	labels, _ := alpha.Encode("bab")
	n, _ := tr.Lookup(labels)
	if want := -3.0 * math.Ln10; math.Abs(n.Unigram()-want) > 1e-10 {
		t.Errorf("Unigram(bab) = %v, want %v", n.Unigram(), want)
	}
	// Lookahead of "a" is the best word under it: "ab".
	a, _ := tr.Lookup([]int{1})
	if want := -0.5 * math.Ln10; math.Abs(a.Lookahead()-want) > 1e-10 {
		t.Errorf("Lookahead(a) = %v, want %v", a.Lookahead(), want)
	}

	entries := tr.Words()
	if len(entries) != len(words) {
		t.Fatalf("len(Words) = %d, want %d", len(entries), len(words))
	}
	if entries[0].Word != "ab" || entries[1].Word != "abba" {
		t.Errorf("Words order = %v", entries)
	}
}

func TestBuildSkipsDuplicates(t *testing.T) {
	tr, err := Build([]string{"ab", "ab", "ba"}, testLM(t), testAlphabet(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("Len = %d, want 2", tr.Len())
	}
}

func TestBuildErrors(t *testing.T) {
	alpha := testAlphabet(t)
	lm := testLM(t)

	_, err := Build([]string{"ab", "axe"}, lm, alpha)
	if !errors.Is(err, ErrBuild) || !errors.Is(err, lexicon.ErrUnknownLabel) {
		t.Errorf("Build(axe) err = %v, want ErrBuild wrapping ErrUnknownLabel", err)
	}
	if err != nil && !strings.Contains(err.Error(), `"axe"`) {
		t.Errorf("error %q does not name the offending word", err)
	}

	_, err = Build([]string{"a b"}, lm, alpha)
	if !errors.Is(err, ErrBuild) || !errors.Is(err, ErrInvalidWord) {
		t.Errorf("Build(a b) err = %v, want ErrBuild wrapping ErrInvalidWord", err)
	}

	if _, err := Build([]string{"ab"}, nil, alpha); !errors.Is(err, ErrBuild) {
		t.Errorf("Build without LM err = %v, want ErrBuild", err)
	}
}

func TestSaveLoad(t *testing.T) {
	alpha := testAlphabet(t)
	tr, err := Build([]string{"ab", "abba", "ba"}, testLM(t), alpha)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	var buf bytes.Buffer
	if err := tr.Save(&buf); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !loaded.Alphabet().Equal(alpha) {
		t.Error("loaded alphabet differs")
	}
	if loaded.Len() != tr.Len() || loaded.NodeCount() != tr.NodeCount() {
		t.Errorf("loaded Len/NodeCount = %d/%d, want %d/%d", loaded.Len(), loaded.NodeCount(), tr.Len(), tr.NodeCount())
	}
	want := tr.Words()
	got := loaded.Words()
	for i := range want {
		if got[i].Word != want[i].Word || got[i].Unigram != want[i].Unigram {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	n, _ := loaded.Lookup([]int{2})
	m, _ := tr.Lookup([]int{2})
	if n.Lookahead() != m.Lookahead() {
		t.Errorf("Lookahead(b) = %v, want %v", n.Lookahead(), m.Lookahead())
	}
}

func TestLoadCorrupt(t *testing.T) {
	if _, err := Load(strings.NewReader("not a trie")); err == nil {
		t.Error("Load succeeded on garbage input")
	}
}

func TestWriteFile(t *testing.T) {
	tr, err := Build([]string{"ab"}, testLM(t), testAlphabet(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	path := t.TempDir() + "/lm.trie"
	if err := tr.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("Len = %d, want 1", loaded.Len())
	}
}
