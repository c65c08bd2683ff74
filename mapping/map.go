// Package mapping loads replacement pairs from spreadsheets.
//
// A source is any row-oriented table whose header names a start column
// and an end column ("Start Word" and "End Word" by default). Each row
// with both values present becomes one pair; later rows overwrite earlier
// ones with the same key.
package mapping

// Pair is one replacement: every occurrence of From becomes To.
type Pair struct {
	From string
	To   string
}

// ReplacementMap is an insertion-ordered string map. Overwriting a key
// keeps its original position and takes the new value.
type ReplacementMap struct {
	keys   []string
	values map[string]string
}

// NewReplacementMap returns an empty map.
func NewReplacementMap() *ReplacementMap {
	return &ReplacementMap{values: make(map[string]string)}
}

// FromPairs builds a map from pairs in order.
func FromPairs(pairs ...Pair) *ReplacementMap {
	m := NewReplacementMap()
	for _, p := range pairs {
		m.Set(p.From, p.To)
	}
	return m
}

// Set stores value under key.
func (m *ReplacementMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *ReplacementMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (m *ReplacementMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *ReplacementMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Pairs returns a snapshot of the entries in insertion order.
func (m *ReplacementMap) Pairs() []Pair {
	if m == nil {
		return nil
	}
	out := make([]Pair, len(m.keys))
	for i, k := range m.keys {
		out[i] = Pair{From: k, To: m.values[k]}
	}
	return out
}
