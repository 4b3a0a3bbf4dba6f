package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MaxOrder is the highest n-gram order the model supports.
const MaxOrder = 3

// LoadARPA reads a language model in ARPA format.
// Log probabilities in ARPA files are base-10; they are converted to natural log.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	model := NewNGramModel(1)

	// Skip until \data\ section
	found := false
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "\\data\\" {
			found = true
			break
		}
	}
	if !found {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("missing \\data\\ header")
	}

	// Parse ngram counts
	maxOrder := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "ngram ") {
			break
		}
		parts := strings.SplitN(line[len("ngram "):], "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad count line %q", line)
		}
		order, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("bad count line %q: %w", line, err)
		}
		if order > maxOrder {
			maxOrder = order
		}
	}
	if maxOrder == 0 {
		return nil, fmt.Errorf("no ngram counts in \\data\\ section")
	}
	if maxOrder > MaxOrder {
		return nil, fmt.Errorf("unsupported n-gram order %d (max %d)", maxOrder, MaxOrder)
	}
	model.Order = maxOrder

	// Parse n-gram sections. The scanner is positioned on the first section header.
	ended := false
	for !ended {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "\\end\\":
			ended = true
			continue
		case strings.HasPrefix(line, "\\") && strings.HasSuffix(line, "-grams:"):
			order, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, "\\"), "-grams:"))
			if err != nil || order < 1 || order > maxOrder {
				return nil, fmt.Errorf("bad section header %q", line)
			}
			next := false
			for scanner.Scan() {
				entry := strings.TrimSpace(scanner.Text())
				if entry == "" {
					continue
				}
				if strings.HasPrefix(entry, "\\") {
					next = true
					break
				}
				if err := parseNGramLine(model, order, entry); err != nil {
					return nil, fmt.Errorf("parse n-gram line %q: %w", entry, err)
				}
			}
			if !next {
				ended = true
			}
			continue
		}
		if !scanner.Scan() {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(model.Unigrams) == 0 {
		return nil, fmt.Errorf("empty unigram section")
	}

	return model, nil
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return fmt.Errorf("too few fields for %d-gram", order)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}
	logProb *= math.Ln10

	words := fields[1 : order+1]

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
		logBackoff = bo * math.Ln10
	}

	entry := ngramEntry{LogProb: logProb, LogBackoff: logBackoff}

	switch order {
	case 1:
		model.Unigrams[words[0]] = entry
	case 2:
		model.Bigrams[[2]string{words[0], words[1]}] = entry
	case 3:
		model.Trigrams[[3]string{words[0], words[1], words[2]}] = entry
	}

	return nil
}
