package cutrepr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/abctsp/abctsp/tour"
)

// Segment is a contiguous range [Lo,Hi] of tour-node positions (indices
// into a BestTour.Nodes), inclusive.
type Segment struct{ Lo, Hi int }

// Clique is an unordered node set represented as a sorted disjoint union of
// tour-position segments, plus the node set itself so it can be
// re-expressed against a new defining tour on augmentation (spec.md §3).
type Clique struct {
	Nodes    []int // sorted actual node ids
	Segments []Segment
}

// key is the canonical identity of a Clique: its sorted node set, which is
// tour-independent — two Cliques are "the same set of nodes" regardless of
// which tour currently defines their segment representation.
func key(nodes []int) string {
	var b strings.Builder
	for i, v := range nodes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// buildSegments groups nodes into contiguous [lo,hi] position ranges under
// t, sorted by starting position.
func buildSegments(t *tour.BestTour, nodes []int) []Segment {
	n := len(t.Nodes)
	positions := make([]int, len(nodes))
	for i, v := range nodes {
		positions[i] = t.Perm[v]
	}
	sort.Ints(positions)

	var segs []Segment
	i := 0
	for i < len(positions) {
		lo := positions[i]
		hi := lo
		j := i + 1
		for j < len(positions) && positions[j] == hi+1 {
			hi = positions[j]
			j++
		}
		segs = append(segs, Segment{Lo: lo, Hi: hi})
		i = j
	}
	// Merge a wrap-around segment: if the first segment starts at 0 and the
	// last ends at n-1, they are contiguous modulo n.
	if len(segs) > 1 && segs[0].Lo == 0 && segs[len(segs)-1].Hi == n-1 {
		segs[0].Lo = segs[len(segs)-1].Lo - n
		segs = segs[:len(segs)-1]
	}
	return segs
}

// CliqueBank is a reference-counted hash set of Cliques, indexed by handle.
type CliqueBank struct {
	defining *tour.BestTour
	entries  []cliqueEntry
	index    map[string]int // canonical key -> handle
}

type cliqueEntry struct {
	clique   Clique
	refCount int
	live     bool
}

// NewCliqueBank creates a bank whose initial defining tour is t.
func NewCliqueBank(t *tour.BestTour) *CliqueBank {
	return &CliqueBank{defining: t, index: make(map[string]int)}
}

// Insert adds (or, if an equal node set already exists, references) a
// Clique for the given node set and returns its handle.
func (b *CliqueBank) Insert(nodes []int) int {
	sorted := append([]int(nil), nodes...)
	sort.Ints(sorted)
	k := key(sorted)
	if h, ok := b.index[k]; ok {
		b.entries[h].refCount++
		return h
	}
	c := Clique{Nodes: sorted, Segments: buildSegments(b.defining, sorted)}
	h := len(b.entries)
	b.entries = append(b.entries, cliqueEntry{clique: c, refCount: 1, live: true})
	b.index[k] = h
	return h
}

// Get returns the Clique for handle h.
//
// Errors: ErrUnknownHandle.
func (b *CliqueBank) Get(h int) (Clique, error) {
	if h < 0 || h >= len(b.entries) || !b.entries[h].live {
		return Clique{}, ErrUnknownHandle
	}
	return b.entries[h].clique, nil
}

// Release decrements h's reference count; at zero the entry is marked dead
// but its slot (and handle) is not reused, keeping existing handles stable.
//
// Errors: ErrUnknownHandle.
func (b *CliqueBank) Release(h int) error {
	if h < 0 || h >= len(b.entries) || !b.entries[h].live {
		return ErrUnknownHandle
	}
	b.entries[h].refCount--
	if b.entries[h].refCount <= 0 {
		delete(b.index, key(b.entries[h].clique.Nodes))
		b.entries[h].live = false
	}
	return nil
}

// Rebase re-expresses every live Clique's Segments against the new
// defining tour nt, preserving each Clique's node set (spec.md §3
// invariant: "on augmentation the bank's defining tour changes, and every
// Clique's node set is re-expressed against the new tour").
func (b *CliqueBank) Rebase(nt *tour.BestTour) {
	b.defining = nt
	for i := range b.entries {
		if !b.entries[i].live {
			continue
		}
		b.entries[i].clique.Segments = buildSegments(nt, b.entries[i].clique.Nodes)
	}
}

// Size returns the number of CliqueBank entries (counting dead slots; use
// for diagnostics only).
func (b *CliqueBank) Size() int { return len(b.entries) }
