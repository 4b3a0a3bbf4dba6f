package trie

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/ieee0824/ctcdecode-go/lexicon"
)

const fileVersion = 1

// ErrCorrupt is returned when a trie artifact fails validation.
var ErrCorrupt = errors.New("corrupt trie artifact")

// serializable types for gob encoding
type serializedTrie struct {
	Version int
	Labels  []string
	Blank   int
	Space   int
	Words   int
	Nodes   []serializedNode // breadth-first; Nodes[0] is the root
}

type serializedNode struct {
	Terminal  bool
	Word      string
	Unigram   float64
	Lookahead float64
	Edges     []int32 // child labels, ascending
	Targets   []int32 // child node indices, parallel to Edges
}

// Save writes the trie as a zstd-compressed gob artifact.
func (t *Trie) Save(w io.Writer) error {
	st := serializedTrie{
		Version: fileVersion,
		Labels:  t.alpha.Labels(),
		Blank:   t.alpha.Blank(),
		Space:   t.alpha.Space(),
		Words:   t.words,
		Nodes:   make([]serializedNode, 0, t.nodes),
	}

	queue := []*Node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sn := serializedNode{
			Terminal:  n.terminal,
			Word:      n.word,
			Unigram:   n.unigram,
			Lookahead: n.lookahead,
		}
		next := len(st.Nodes) + len(queue) + 1
		for _, l := range sortedLabels(n) {
			sn.Edges = append(sn.Edges, int32(l))
			sn.Targets = append(sn.Targets, int32(next))
			queue = append(queue, n.children[l])
			next++
		}
		st.Nodes = append(st.Nodes, sn)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(zw).Encode(st); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Load reads a trie artifact written by Save.
func Load(r io.Reader) (*Trie, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var st serializedTrie
	if err := gob.NewDecoder(zr).Decode(&st); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if st.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, st.Version)
	}
	alpha, err := lexicon.NewAlphabet(st.Labels, st.Blank, st.Space)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(st.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no root node", ErrCorrupt)
	}

	nodes := make([]*Node, len(st.Nodes))
	for i := range nodes {
		nodes[i] = newNode()
	}
	words := 0
	for i, sn := range st.Nodes {
		if len(sn.Edges) != len(sn.Targets) {
			return nil, fmt.Errorf("%w: node %d edge count mismatch", ErrCorrupt, i)
		}
		n := nodes[i]
		n.terminal = sn.Terminal
		n.word = sn.Word
		n.unigram = sn.Unigram
		n.lookahead = sn.Lookahead
		if sn.Terminal {
			words++
		}
		for k, l := range sn.Edges {
			target := int(sn.Targets[k])
			label := int(l)
			// Breadth-first order puts children after their parent, so
			// forward-only edges rule out cycles.
			if target <= i || target >= len(nodes) {
				return nil, fmt.Errorf("%w: node %d has bad child index %d", ErrCorrupt, i, target)
			}
			if label < 0 || label >= alpha.Size() || label == alpha.Blank() || label == alpha.Space() {
				return nil, fmt.Errorf("%w: node %d has bad label %d", ErrCorrupt, i, label)
			}
			if n.children == nil {
				n.children = make(map[int]*Node, len(sn.Edges))
			}
			n.children[label] = nodes[target]
		}
	}
	if words != st.Words {
		return nil, fmt.Errorf("%w: %d terminal nodes, header says %d", ErrCorrupt, words, st.Words)
	}

	return &Trie{root: nodes[0], alpha: alpha, words: words, nodes: len(nodes)}, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*Trie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile saves the trie to path. The artifact is written to a temporary
// file in the same directory and renamed, so path never holds a partial trie.
func (t *Trie) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if err := t.Save(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
