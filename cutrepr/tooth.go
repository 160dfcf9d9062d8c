package cutrepr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/abctsp/abctsp/tour"
)

// ToothAdjacency classifies a SimpleTooth by how its body segment sits
// relative to its root under the defining tour.
type ToothAdjacency int

const (
	LeftAdjacent ToothAdjacency = iota
	RightAdjacent
	Distant
)

// SimpleTooth is (root, body: contiguous tour segment excluding root,
// slack) — spec.md §3. It represents
// 2x(E(body)) + x(E(root:body)) <= 2|body|-1.
type SimpleTooth struct {
	Root       int
	Body       []int // sorted actual node ids, contiguous under the defining tour, excludes Root
	Slack      float64
	Adjacency  ToothAdjacency
}

// sandwich reports whether the tooth's body, together with its root,
// covers at most ceil(n/2) nodes after complementation — SimpleTooth
// bodies are canonicalized to the smaller side (spec.md §9 "Sandwich teeth
// and complementation").
func sandwich(bodySize, n int) bool {
	return bodySize+1 <= (n+1)/2
}

// Complement always returns the complement tooth body (V \ (body ∪ {root}));
// the caller decides when to use it, per spec.md §9's canonicalization
// rule: the inequality is symmetric under complementation, so store the
// smaller body.
func Complement(allNodes []int, root int, body []int) []int {
	inBody := make(map[int]bool, len(body)+1)
	inBody[root] = true
	for _, v := range body {
		inBody[v] = true
	}
	var comp []int
	for _, v := range allNodes {
		if !inBody[v] {
			comp = append(comp, v)
		}
	}
	return comp
}

// NewSimpleTooth builds a canonicalized SimpleTooth: if the given body is
// larger than its complement (excluding root), it is replaced by the
// complement so the stored body is always the smaller side.
func NewSimpleTooth(t *tour.BestTour, root int, body []int, slack float64) SimpleTooth {
	n := len(t.Nodes)
	allNodes := t.Nodes
	b := append([]int(nil), body...)
	if !sandwich(len(b), n) {
		b = Complement(allNodes, root, b)
	}
	sort.Ints(b)
	return SimpleTooth{Root: root, Body: b, Slack: slack, Adjacency: classify(t, root, b)}
}

func classify(t *tour.BestTour, root int, body []int) ToothAdjacency {
	if len(body) == 0 {
		return Distant
	}
	n := len(t.Nodes)
	rp := t.Perm[root]
	lo, hi := t.Perm[body[0]], t.Perm[body[0]]
	for _, v := range body {
		p := t.Perm[v]
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if (lo-1+n)%n == rp {
		return LeftAdjacent
	}
	if (hi+1)%n == rp {
		return RightAdjacent
	}
	return Distant
}

func toothKey(root int, body []int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(root))
	b.WriteByte('|')
	for i, v := range body {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// ToothBank is a reference-counted hash set of SimpleTooth, analogous to
// CliqueBank.
type ToothBank struct {
	entries []toothEntry
	index   map[string]int
}

type toothEntry struct {
	tooth    SimpleTooth
	refCount int
	live     bool
}

// NewToothBank creates an empty bank.
func NewToothBank() *ToothBank {
	return &ToothBank{index: make(map[string]int)}
}

// Insert adds (or references) a tooth and returns its handle.
func (b *ToothBank) Insert(th SimpleTooth) int {
	k := toothKey(th.Root, th.Body)
	if h, ok := b.index[k]; ok {
		b.entries[h].refCount++
		return h
	}
	h := len(b.entries)
	b.entries = append(b.entries, toothEntry{tooth: th, refCount: 1, live: true})
	b.index[k] = h
	return h
}

// Get returns the tooth for handle h.
//
// Errors: ErrUnknownHandle.
func (b *ToothBank) Get(h int) (SimpleTooth, error) {
	if h < 0 || h >= len(b.entries) || !b.entries[h].live {
		return SimpleTooth{}, ErrUnknownHandle
	}
	return b.entries[h].tooth, nil
}

// WeakEliminate applies the Fleischer et al. (2006, Lemma 5.5) weak
// elimination rule (SPEC_FULL.md §D.4): among teeth sharing a root, if one
// tooth's body is a subset of another's, only the lower-slack tooth is
// kept as a light-tooth candidate. Returns the surviving handles, a subset
// of candidates.
func (b *ToothBank) WeakEliminate(candidates []int) []int {
	byRoot := make(map[int][]int)
	for _, h := range candidates {
		t, err := b.Get(h)
		if err != nil {
			continue
		}
		byRoot[t.Root] = append(byRoot[t.Root], h)
	}
	var survivors []int
	for _, hs := range byRoot {
		eliminated := make(map[int]bool)
		for _, hi := range hs {
			if eliminated[hi] {
				continue
			}
			ti, _ := b.Get(hi)
			for _, hj := range hs {
				if hi == hj || eliminated[hj] {
					continue
				}
				tj, _ := b.Get(hj)
				if isSubset(ti.Body, tj.Body) {
					if ti.Slack <= tj.Slack {
						eliminated[hj] = true
					} else {
						eliminated[hi] = true
						break
					}
				}
			}
		}
		for _, h := range hs {
			if !eliminated[h] {
				survivors = append(survivors, h)
			}
		}
	}
	return survivors
}

func isSubset(a, b []int) bool {
	set := make(map[int]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	for _, v := range a {
		if !set[v] {
			return false
		}
	}
	return true
}
