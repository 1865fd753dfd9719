package polyglot

import "strings"

// Select records the user's current selection together with the full input
// it was taken from. A blank selection is ignored and the previous one kept;
// Select reports whether the selection changed.
func (c *Client) Select(selected, input string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" {
		return false
	}

	c.mu.Lock()
	c.selection = Selection{Text: selected, Context: input}
	c.mu.Unlock()
	return true
}

// Selection returns the current selection.
func (c *Client) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// ClearSelection forgets the current selection.
func (c *Client) ClearSelection() {
	c.mu.Lock()
	c.selection = Selection{}
	c.mu.Unlock()
}
