package lexicon

import (
	"strings"
	"testing"
)

const testDict = `hello
world

  cat  
hello
café
`

func TestLoadWords(t *testing.T) {
	words, err := LoadWords(strings.NewReader(testDict))
	if err != nil {
		t.Fatalf("LoadWords error: %v", err)
	}
	want := []string{"hello", "world", "cat", "café"}
	if len(words) != len(want) {
		t.Fatalf("len(words) = %d, want %d (%v)", len(words), len(want), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("words[%d] = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestLoadWordsNormalizes(t *testing.T) {
	// "e" + combining acute accent must collapse onto the precomposed form.
	words, err := LoadWords(strings.NewReader("cafe\u0301\ncaf\u00e9\n"))
	if err != nil {
		t.Fatalf("LoadWords error: %v", err)
	}
	if len(words) != 1 || words[0] != "caf\u00e9" {
		t.Errorf("words = %q, want [café]", words)
	}
}

func TestLoadWordsFileMissing(t *testing.T) {
	if _, err := LoadWordsFile("/nonexistent/dict.txt"); err == nil {
		t.Error("LoadWordsFile succeeded on missing file")
	}
}
