package diag

import "sort"

// Bag holds the diagnostics of one file in log order.
type Bag struct {
	items []Diagnostic
}

// Add appends d.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the diagnostics. An empty bag yields a non-nil empty slice
// so clear publishes serialize as [].
func (b *Bag) Items() []Diagnostic {
	if b.items == nil {
		return []Diagnostic{}
	}
	return b.items
}

// Report maps original paths to their diagnostics.
type Report map[string]*Bag

// bag returns the bag for path, creating it on first use.
func (r Report) bag(path string) *Bag {
	b, ok := r[path]
	if !ok {
		b = &Bag{}
		r[path] = b
	}
	return b
}

// Paths returns the report's paths in lexical order.
func (r Report) Paths() []string {
	out := make([]string, 0, len(r))
	for p := range r {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasErrors reports whether any file carries an error.
func (r Report) HasErrors() bool {
	for _, b := range r {
		if b.HasErrors() {
			return true
		}
	}
	return false
}

// Count returns the total number of diagnostics.
func (r Report) Count() int {
	n := 0
	for _, b := range r {
		n += b.Len()
	}
	return n
}
