package jobform

// Tag is the lifecycle marker telling the posting API what to do with an item.
type Tag string

// Lifecycle tags. TagNone means the item is unchanged.
const (
	TagNone   Tag = ""
	TagCreate Tag = "create"
	TagUpdate Tag = "update"
	TagDelete Tag = "delete"
)

// Entry is one slot of a Collection. ID is the server-side identifier and is
// empty until the item has been persisted.
type Entry[T any] struct {
	ID    string `json:"_id,omitempty"`
	Tag   Tag    `json:"action,omitempty"`
	Value T      `json:"value"`
}

// Persisted reports whether the item exists server-side.
func (e Entry[T]) Persisted() bool {
	return e.ID != ""
}

// Tombstoned reports whether the item is hidden and only carries a delete.
func (e Entry[T]) Tombstoned() bool {
	return e.Tag == TagDelete
}

// Policy describes a reserved item: one that must exist exactly once among
// the active entries and can be edited but never removed.
type Policy[T any] struct {
	Reserved func(T) bool
	Seed     func() T
}

// Indexed pairs a visible entry with its position in the underlying slice.
type Indexed[T any] struct {
	Index int
	Entry[T]
}

// Collection tracks in-memory edits to a variable-length sub-collection so they
// can later be expressed as creates, updates and deletes. Indices always refer
// to the underlying slice, tombstones included.
type Collection[T any] struct {
	entries []Entry[T]
	policy  Policy[T]
}

// NewCollection returns an empty collection. If the policy names a reserved
// item it is seeded immediately.
func NewCollection[T any](policy Policy[T]) *Collection[T] {
	c := &Collection[T]{policy: policy}
	c.EnsureReserved()
	return c
}

// Load replaces the contents with entries read from the server (or a saved
// snapshot) and seeds the reserved item if it is missing.
func (c *Collection[T]) Load(entries []Entry[T]) {
	c.entries = make([]Entry[T], 0, len(entries))
	seen := false
	for _, e := range entries {
		if c.isReserved(e.Value) && !e.Tombstoned() {
			if seen {
				// A second reserved item can only come from bad data.
				if e.Persisted() {
					e.Tag = TagDelete
					c.entries = append(c.entries, e)
				}
				continue
			}
			seen = true
		}
		c.entries = append(c.entries, e)
	}
	c.EnsureReserved()
}

// EnsureReserved appends the seeded reserved item when no active one exists.
func (c *Collection[T]) EnsureReserved() {
	if c.policy.Reserved == nil || c.policy.Seed == nil {
		return
	}
	if c.reservedIndex() >= 0 {
		return
	}
	c.entries = append(c.entries, Entry[T]{Tag: TagCreate, Value: c.policy.Seed()})
}

// Append adds a new item tagged create and returns its index. A second
// reserved item is refused.
func (c *Collection[T]) Append(v T) (int, bool) {
	if c.isReserved(v) && c.reservedIndex() >= 0 {
		return -1, false
	}
	c.entries = append(c.entries, Entry[T]{Tag: TagCreate, Value: v})
	return len(c.entries) - 1, true
}

// Update applies patch to the item at index. A pending creation stays a
// creation; an unchanged persisted item becomes an update. Tombstones cannot
// be edited and the reserved item cannot be renamed away or duplicated.
func (c *Collection[T]) Update(index int, patch func(*T)) bool {
	if index < 0 || index >= len(c.entries) || patch == nil {
		return false
	}
	e := c.entries[index]
	if e.Tombstoned() {
		return false
	}

	next := e.Value
	patch(&next)

	wasReserved := c.isReserved(e.Value)
	if wasReserved && !c.isReserved(next) {
		return false
	}
	if !wasReserved && c.isReserved(next) && c.reservedIndex() >= 0 {
		return false
	}

	e.Value = next
	switch {
	case e.Tag == TagCreate:
	case e.Persisted():
		e.Tag = TagUpdate
	default:
		e.Tag = TagCreate
	}
	c.entries[index] = e
	return true
}

// Remove drops an unpersisted item outright and tombstones a persisted one.
// The reserved item is never removed.
func (c *Collection[T]) Remove(index int) bool {
	if index < 0 || index >= len(c.entries) {
		return false
	}
	e := c.entries[index]
	if e.Tombstoned() || c.isReserved(e.Value) {
		return false
	}

	if !e.Persisted() {
		c.entries = append(c.entries[:index], c.entries[index+1:]...)
		return true
	}

	e.Tag = TagDelete
	c.entries[index] = e
	return true
}

// Len returns the length of the underlying slice, tombstones included.
func (c *Collection[T]) Len() int {
	return len(c.entries)
}

// At returns the entry at index.
func (c *Collection[T]) At(index int) (Entry[T], bool) {
	if index < 0 || index >= len(c.entries) {
		return Entry[T]{}, false
	}
	return c.entries[index], true
}

// Entries returns a copy of every entry, tombstones included.
func (c *Collection[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(c.entries))
	copy(out, c.entries)
	return out
}

// Visible returns the entries a user should see, with their indices.
func (c *Collection[T]) Visible() []Indexed[T] {
	out := make([]Indexed[T], 0, len(c.entries))
	for i, e := range c.entries {
		if e.Tombstoned() {
			continue
		}
		out = append(out, Indexed[T]{Index: i, Entry: e})
	}
	return out
}

// Active returns the values of the visible entries.
func (c *Collection[T]) Active() []T {
	out := make([]T, 0, len(c.entries))
	for _, e := range c.entries {
		if !e.Tombstoned() {
			out = append(out, e.Value)
		}
	}
	return out
}

func (c *Collection[T]) isReserved(v T) bool {
	return c.policy.Reserved != nil && c.policy.Reserved(v)
}

func (c *Collection[T]) reservedIndex() int {
	if c.policy.Reserved == nil {
		return -1
	}
	for i, e := range c.entries {
		if !e.Tombstoned() && c.policy.Reserved(e.Value) {
			return i
		}
	}
	return -1
}
