package stats

// Bucket is one key of a Histogram with its count.
type Bucket[K comparable] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// Histogram counts occurrences and remembers the order in which keys were
// first seen.
type Histogram[K comparable] struct {
	order  []K
	counts map[K]int
}

// Add increments the count for k.
func (h *Histogram[K]) Add(k K) {
	if h.counts == nil {
		h.counts = make(map[K]int)
	}
	if _, ok := h.counts[k]; !ok {
		h.order = append(h.order, k)
	}
	h.counts[k]++
}

// Count returns the count for k.
func (h *Histogram[K]) Count(k K) int {
	return h.counts[k]
}

// Len returns the number of distinct keys.
func (h *Histogram[K]) Len() int {
	return len(h.order)
}

// Buckets returns a copy of the histogram in first-occurrence order.
func (h *Histogram[K]) Buckets() []Bucket[K] {
	out := make([]Bucket[K], len(h.order))
	for i, k := range h.order {
		out[i] = Bucket[K]{Key: k, Count: h.counts[k]}
	}
	return out
}
