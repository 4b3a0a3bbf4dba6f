package decoder

import (
	"sort"

	"github.com/ieee0824/ctcdecode-go/internal/mathutil"
	"github.com/ieee0824/ctcdecode-go/scorer"
)

const noParent = -1

// hyp is one prefix in the beam arena. Prefixes are unique by
// (parent, label), so one emitted label sequence is always one node.
type hyp struct {
	parent int32
	label  int // last emitted label, -1 for the empty prefix

	// Log probabilities of all alignments of the prefix that end in a
	// blank, end in label, or either, at the last processed timestep.
	blank float64
	lab   float64
	total float64

	state scorer.State
	delta float64 // scorer delta for appending label to the parent
	live  bool    // survived the last timestep
}

// candidate is a prefix scored for the next timestep. node is -1 until the
// candidate survives pruning and is materialised.
type candidate struct {
	node   int32
	parent int32
	label  int

	blank float64
	lab   float64
	total float64

	state scorer.State
	delta float64
}

func childKey(parent int32, label int) uint64 {
	return uint64(uint32(parent))<<32 | uint64(uint32(label))
}

// beam is the search state of one batch item. It is owned by a single
// goroutine.
type beam struct {
	snap   scorer.Snapshot
	width  int
	blank  int
	merge  bool
	nodes  []hyp
	index  map[uint64]int32
	active []int32
	cands  []candidate
	logRow []float64
}

func newBeam(snap scorer.Snapshot, cfg Config, numClasses int) *beam {
	b := &beam{
		snap:   snap,
		width:  cfg.BeamWidth,
		blank:  cfg.BlankIndex,
		merge:  cfg.MergeRepeated,
		index:  make(map[uint64]int32),
		logRow: make([]float64, numClasses),
	}
	b.nodes = append(b.nodes, hyp{
		parent: noParent,
		label:  -1,
		blank:  0,
		lab:    mathutil.LogZero,
		total:  0,
		state:  snap.Initial(),
		live:   true,
	})
	b.active = append(b.active, 0)
	return b
}

// step advances every live prefix by one timestep of probabilities.
func (b *beam) step(row []float32) {
	x := b.logRow
	for i, p := range row {
		x[i] = mathutil.SafeLog(float64(p))
	}
	b.cands = b.cands[:0]

	for _, id := range b.active {
		b.carry(id, x)
	}
	for _, id := range b.active {
		b.extend(id, x)
	}

	// Stable sort keeps first-seen order among equal scores.
	sort.SliceStable(b.cands, func(i, j int) bool {
		return b.cands[i].total > b.cands[j].total
	})
	if len(b.cands) > b.width {
		b.cands = b.cands[:b.width]
	}

	for _, id := range b.active {
		b.nodes[id].live = false
	}
	b.active = b.active[:0]
	for i := range b.cands {
		b.active = append(b.active, b.materialise(&b.cands[i]))
	}
}

// carry scores a live prefix that emits nothing new at this timestep: it
// either sees a blank, holds its last label, or was just entered from its
// live parent.
func (b *beam) carry(id int32, x []float64) {
	h := &b.nodes[id]
	c := candidate{
		node:   id,
		parent: h.parent,
		label:  h.label,
		blank:  h.total + x[b.blank],
		lab:    mathutil.LogZero,
		state:  h.state,
		delta:  h.delta,
	}
	if h.parent != noParent {
		l := h.label
		if b.merge {
			c.lab = h.total + x[l]
		} else {
			c.lab = h.lab + x[l]
		}
		if p := &b.nodes[h.parent]; p.live {
			from := p.total
			if !b.merge && p.label == l {
				from = p.blank
			}
			c.lab = mathutil.LogAdd(c.lab, from+h.delta+x[l])
		}
	}
	c.total = mathutil.LogAdd(c.blank, c.lab)
	if !mathutil.IsZero(c.total) {
		b.cands = append(b.cands, c)
	}
}

// extend scores every one-label extension of a live prefix that is not
// itself live.
func (b *beam) extend(id int32, x []float64) {
	h := &b.nodes[id]
	for l := range x {
		if l == b.blank || (b.merge && l == h.label) {
			continue
		}
		var (
			state scorer.State
			delta float64
		)
		child, known := b.index[childKey(id, l)]
		if known {
			if b.nodes[child].live {
				continue
			}
			state, delta = b.nodes[child].state, b.nodes[child].delta
		} else {
			child = noParent
			state, delta = b.snap.Expand(h.state, l)
		}

		from := h.total
		if l == h.label {
			from = h.blank
		}
		lab := from + delta + x[l]
		if mathutil.IsZero(lab) {
			continue
		}
		b.cands = append(b.cands, candidate{
			node:   child,
			parent: id,
			label:  l,
			blank:  mathutil.LogZero,
			lab:    lab,
			total:  lab,
			state:  state,
			delta:  delta,
		})
	}
}

// materialise stores a surviving candidate in the arena, reusing the node of
// a prefix that was live before.
func (b *beam) materialise(c *candidate) int32 {
	id := c.node
	if id == noParent {
		id = int32(len(b.nodes))
		b.nodes = append(b.nodes, hyp{
			parent: c.parent,
			label:  c.label,
			state:  c.state,
			delta:  c.delta,
		})
		b.index[childKey(c.parent, c.label)] = id
	}
	h := &b.nodes[id]
	h.blank, h.lab, h.total = c.blank, c.lab, c.total
	h.live = true
	return id
}

// path is one finished hypothesis.
type path struct {
	node  int32
	score float64
}

// finish closes every live prefix and returns them best first.
func (b *beam) finish() []path {
	out := make([]path, 0, len(b.active))
	for _, id := range b.active {
		h := &b.nodes[id]
		out = append(out, path{node: id, score: h.total + b.snap.Finish(h.state)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	return out
}

// labels writes the emitted labels of node into dst and returns their count.
func (b *beam) labels(node int32, dst []int) int {
	n := 0
	for id := node; b.nodes[id].parent != noParent; id = b.nodes[id].parent {
		n++
	}
	i := n
	for id := node; b.nodes[id].parent != noParent; id = b.nodes[id].parent {
		i--
		dst[i] = b.nodes[id].label
	}
	return n
}
