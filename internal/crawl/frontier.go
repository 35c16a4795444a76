// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import "container/heap"

// target is a URL waiting to be fetched.
type target struct {
	URL   string
	Depth int
	Score int
	seq   int
}

// Frontier is a max-priority queue of targets by score. Equal scores leave
// in insertion order. A URL enters the frontier at most once.
type Frontier struct {
	items targetHeap
	seen  map[string]bool
	next  int
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{seen: make(map[string]bool)}
}

// Push queues url unless it has been queued before. It reports whether the
// URL was added.
func (f *Frontier) Push(url string, depth, score int) bool {
	if f.seen[url] {
		return false
	}
	f.seen[url] = true
	heap.Push(&f.items, target{URL: url, Depth: depth, Score: score, seq: f.next})
	f.next++
	return true
}

// Pop removes and returns the highest-scoring target.
func (f *Frontier) Pop() (target, bool) {
	if f.items.Len() == 0 {
		return target{}, false
	}
	return heap.Pop(&f.items).(target), true
}

// Len returns the number of queued targets.
func (f *Frontier) Len() int { return f.items.Len() }

type targetHeap []target

func (h targetHeap) Len() int { return len(h) }

func (h targetHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	return h[i].seq < h[j].seq
}

func (h targetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *targetHeap) Push(x any) { *h = append(*h, x.(target)) }

func (h *targetHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
