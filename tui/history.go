// Package tui provides a Bubble Tea terminal UI for the dialogue engine.
package tui

// History is a bounded command history with cursor-based navigation.
// Bare reply numbers are not recorded.
type History struct {
	entries []string
	max     int
	cursor  int // -1 = not navigating, 0..len-1 = position in entries
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push adds a command to history. Consecutive duplicates and reply numbers
// are skipped.
func (h *History) Push(cmd string) {
	if cmd == "" || isReplyNumber(cmd) {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = h.entries[over:]
	}
}

// Prev returns the previous (older) entry, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	switch {
	case len(h.entries) == 0:
		return "", false
	case h.cursor == -1:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next returns the next (newer) entry. Moving past the newest returns
// ("", false) and leaves navigation.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	if h.cursor++; h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor leaves navigation so the next Prev starts from the newest entry.
func (h *History) ResetCursor() {
	h.cursor = -1
}

func isReplyNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
