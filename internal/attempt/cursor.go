package attempt

// Cursor tracks which question is currently displayed. All movement keeps
// the index inside [0, count); out-of-range jumps are ignored. The cursor
// never touches answer state.
type Cursor struct {
	index int
	count int
}

// NewCursor creates a cursor over count questions, positioned at 0.
func NewCursor(count int) *Cursor {
	return &Cursor{count: count}
}

// Index returns the current question index.
func (c *Cursor) Index() int { return c.index }

// Next advances by one; no-op at the last question.
func (c *Cursor) Next() {
	if c.index < c.count-1 {
		c.index++
	}
}

// Prev moves back by one; no-op at index 0.
func (c *Cursor) Prev() {
	if c.index > 0 {
		c.index--
	}
}

// JumpTo sets the index directly, ignoring out-of-range values.
func (c *Cursor) JumpTo(index int) {
	if index >= 0 && index < c.count {
		c.index = index
	}
}
