package output

import "iter"

// EntryCollection is an ordered sequence of string chunks. Chunks are grouped
// in runs; runs are never mutated once sealed, which lets AddCollection share
// them without copying the chunks themselves.
type EntryCollection struct {
	runs  [][]string
	tail  []string
	count int
	size  int
}

// NewEntryCollection returns an empty collection.
func NewEntryCollection() *EntryCollection {
	return &EntryCollection{}
}

// Add appends one chunk.
func (c *EntryCollection) Add(value string) {
	c.tail = append(c.tail, value)
	c.count++
	c.size += len(value)
}

// AddCollection appends every chunk of other, in order. The cost depends on
// the number of runs in other, not on its chunk count. Later writes to other
// are not visible through c.
func (c *EntryCollection) AddCollection(other *EntryCollection) {
	if other == nil || other.count == 0 {
		return
	}
	c.seal()
	c.runs = append(c.runs, other.runs...)
	if n := len(other.tail); n > 0 {
		c.runs = append(c.runs, other.tail[:n:n])
	}
	c.count += other.count
	c.size += other.size
}

// Len returns the number of chunks.
func (c *EntryCollection) Len() int {
	return c.count
}

// Size returns the total length in bytes of all chunks.
func (c *EntryCollection) Size() int {
	return c.size
}

// All yields chunks in insertion order.
func (c *EntryCollection) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, run := range c.runs {
			for _, value := range run {
				if !yield(value) {
					return
				}
			}
		}
		for _, value := range c.tail {
			if !yield(value) {
				return
			}
		}
	}
}

// seal closes the current tail so it can be shared safely.
func (c *EntryCollection) seal() {
	if n := len(c.tail); n > 0 {
		c.runs = append(c.runs, c.tail[:n:n])
		c.tail = nil
	}
}
