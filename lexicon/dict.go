package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// LoadWords reads a dictionary word list: one word per line.
// Lines are trimmed and NFC-normalized; empty lines are skipped and only
// the first occurrence of a word is kept.
func LoadWords(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	seen := make(map[string]bool)
	var words []string
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		word := norm.NFC.String(strings.TrimSpace(scanner.Text()))
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
	}

	return words, nil
}

// LoadWordsFile is a convenience wrapper that opens a file path.
func LoadWordsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWords(f)
}
