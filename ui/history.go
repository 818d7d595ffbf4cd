package ui

// History is a bounded buffer of log lines.
type History struct {
	entries []string
	max     int
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
	}
}

// Push adds a line, dropping the oldest once full.
func (h *History) Push(line string) {
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (h *History) Lines() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Reset drops every line.
func (h *History) Reset() {
	h.entries = h.entries[:0]
}
