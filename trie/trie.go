// Package trie implements the lexicon prefix tree used to score partial
// words during decoding, and the builder that populates it from a
// dictionary and an n-gram language model.
package trie

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
	"github.com/ieee0824/ctcdecode-go/lexicon"
)

// ErrInvalidWord is returned when a label sequence cannot be stored.
var ErrInvalidWord = errors.New("invalid word label sequence")

// Node is one prefix position in the lexicon.
type Node struct {
	children  map[int]*Node
	terminal  bool
	word      string
	unigram   float64
	lookahead float64
}

func newNode() *Node {
	return &Node{lookahead: mathutil.LogZero, unigram: mathutil.LogZero}
}

// Child returns the node reached by label, or nil.
func (n *Node) Child(label int) *Node {
	if n == nil {
		return nil
	}
	return n.children[label]
}

// Terminal reports whether the path to n spells a dictionary word.
func (n *Node) Terminal() bool { return n != nil && n.terminal }

// Word returns the dictionary word ending at n, or "".
func (n *Node) Word() string {
	if n == nil {
		return ""
	}
	return n.word
}

// Unigram returns the cached unigram log probability of the word ending at n.
func (n *Node) Unigram() float64 {
	if n == nil {
		return mathutil.LogZero
	}
	return n.unigram
}

// Lookahead returns the best unigram log probability of any word under n.
func (n *Node) Lookahead() float64 {
	if n == nil {
		return mathutil.LogZero
	}
	return n.lookahead
}

// Trie is a prefix tree over dictionary label sequences.
// It is built once and is safe for concurrent readers afterwards.
type Trie struct {
	root  *Node
	alpha *lexicon.Alphabet
	words int
	nodes int
}

// New creates an empty trie for alpha.
func New(alpha *lexicon.Alphabet) *Trie {
	return &Trie{root: newNode(), alpha: alpha, nodes: 1}
}

// Root returns the root node.
func (t *Trie) Root() *Node { return t.root }

// Alphabet returns the alphabet the trie was built for.
func (t *Trie) Alphabet() *lexicon.Alphabet { return t.alpha }

// Len returns the number of words.
func (t *Trie) Len() int { return t.words }

// NodeCount returns the number of nodes, including the root.
func (t *Trie) NodeCount() int { return t.nodes }

// Insert adds word with its label sequence and unigram log probability,
// refreshing the cached lookahead along the path. Inserting a word twice
// keeps the better unigram score.
func (t *Trie) Insert(word string, labels []int, unigram float64) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: %q is empty", ErrInvalidWord, word)
	}
	for _, l := range labels {
		if l < 0 || l >= t.alpha.Size() || l == t.alpha.Blank() || l == t.alpha.Space() {
			return fmt.Errorf("%w: %q contains reserved or out-of-range label %d", ErrInvalidWord, word, l)
		}
	}

	cur := t.root
	cur.lookahead = max(cur.lookahead, unigram)
	for _, l := range labels {
		next := cur.children[l]
		if next == nil {
			if cur.children == nil {
				cur.children = make(map[int]*Node)
			}
			next = newNode()
			cur.children[l] = next
			t.nodes++
		}
		next.lookahead = max(next.lookahead, unigram)
		cur = next
	}
	if !cur.terminal {
		cur.terminal = true
		cur.word = word
		t.words++
	}
	cur.unigram = max(cur.unigram, unigram)
	return nil
}

// Lookup returns the node reached by following labels from the root.
func (t *Trie) Lookup(labels []int) (*Node, bool) {
	cur := t.root
	for _, l := range labels {
		cur = cur.children[l]
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Entry is one stored dictionary word.
type Entry struct {
	Word    string
	Labels  []int
	Unigram float64
}

// Words returns every stored word in depth-first, label-ascending order.
func (t *Trie) Words() []Entry {
	var out []Entry
	var path []int
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.terminal {
			out = append(out, Entry{Word: n.word, Labels: append([]int(nil), path...), Unigram: n.unigram})
		}
		for _, l := range sortedLabels(n) {
			path = append(path, l)
			walk(n.children[l])
			path = path[:len(path)-1]
		}
	}
	walk(t.root)
	return out
}

func sortedLabels(n *Node) []int {
	labels := make([]int, 0, len(n.children))
	for l := range n.children {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}
