// Package email defines the raw message model shared by the parser and the
// header rewriter.
package email

import (
	"strings"
)

// LineTerminator separates physical lines on the wire.
const LineTerminator = "\r\n"

// Message is a raw email split at the first blank line. Header fields keep
// their original folding; body lines are opaque and start with the blank
// separator line.
type Message struct {
	Header Header
	Body   []string
}

// String reassembles the message. Header lines are joined with the line
// terminator, followed by a separating terminator and the body lines.
func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(m.Header.Lines(), LineTerminator))
	b.WriteString(LineTerminator)
	b.WriteString(strings.Join(m.Body, LineTerminator))
	return b.String()
}

// Bytes returns the reassembled message as bytes.
func (m *Message) Bytes() []byte {
	return []byte(m.String())
}

// Field is one logical header: the physical line carrying the field name and
// the folded continuation lines that follow it.
type Field struct {
	// Name is the field name as written, without the colon. It is empty for
	// a line that carries no colon.
	Name string

	// Line is the first physical line, including the name.
	Line string

	// Continuations are the folded lines, each starting with whitespace.
	Continuations []string
}

// NewField builds an unfolded "Name: value" field.
func NewField(name, value string) *Field {
	return &Field{Name: name, Line: name + ": " + value}
}

// ParseField builds a field from its first physical line.
func ParseField(line string) *Field {
	f := &Field{Line: line}
	if i := strings.IndexByte(line, ':'); i > 0 && !IsContinuation(line) {
		f.Name = line[:i]
	}
	return f
}

// Is reports whether the field carries the given name. Names compare
// case-insensitively.
func (f *Field) Is(name string) bool {
	return f.Name != "" && strings.EqualFold(f.Name, name)
}

// Value returns the text of the first physical line after "Name: ".
func (f *Field) Value() string {
	if f.Name == "" {
		return f.Line
	}
	v := f.Line[len(f.Name)+1:]
	return strings.TrimPrefix(v, " ")
}

// Unfolded returns the value with continuation lines appended, the line
// breaks removed and the leading whitespace of each continuation kept.
func (f *Field) Unfolded() string {
	if len(f.Continuations) == 0 {
		return f.Value()
	}
	return f.Value() + strings.Join(f.Continuations, "")
}

// Lines returns the physical lines of the field.
func (f *Field) Lines() []string {
	lines := make([]string, 0, 1+len(f.Continuations))
	lines = append(lines, f.Line)
	return append(lines, f.Continuations...)
}

// Rename returns a copy of the field under a new name with the same value
// and folding.
func (f *Field) Rename(name string) *Field {
	c := NewField(name, f.Value())
	c.Continuations = append([]string(nil), f.Continuations...)
	return c
}

// IsContinuation reports whether a physical header line continues the
// previous one.
func IsContinuation(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// Header is the ordered list of header fields of a message.
type Header struct {
	fields []*Field
}

// NewHeader groups physical header lines into fields. A continuation line
// with no preceding field is kept as a nameless field of its own.
func NewHeader(lines []string) Header {
	var h Header
	for _, line := range lines {
		if IsContinuation(line) && len(h.fields) > 0 {
			last := h.fields[len(h.fields)-1]
			last.Continuations = append(last.Continuations, line)
			continue
		}
		h.fields = append(h.fields, ParseField(line))
	}
	return h
}

// Fields returns the fields in order.
func (h *Header) Fields() []*Field {
	return h.fields
}

// Len returns the number of logical fields.
func (h *Header) Len() int {
	return len(h.fields)
}

// Get returns the first field with the given name, or nil.
func (h *Header) Get(name string) *Field {
	if i := h.index(name); i >= 0 {
		return h.fields[i]
	}
	return nil
}

// GetAll returns every field with the given name.
func (h *Header) GetAll(name string) []*Field {
	var out []*Field
	for _, f := range h.fields {
		if f.Is(name) {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether a field with the given name exists.
func (h *Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Append adds a field after the last one.
func (h *Header) Append(f *Field) {
	h.fields = append(h.fields, f)
}

// Replace substitutes the first field with the given name in place and
// reports whether one was found. The old field's continuation lines go with
// it.
func (h *Header) Replace(name string, f *Field) bool {
	i := h.index(name)
	if i < 0 {
		return false
	}
	h.fields[i] = f
	return true
}

// RemoveAll deletes every field with the given name, including its
// continuation lines, and returns the removed fields.
func (h *Header) RemoveAll(name string) []*Field {
	var removed []*Field
	kept := h.fields[:0]
	for _, f := range h.fields {
		if f.Is(name) {
			removed = append(removed, f)
			continue
		}
		kept = append(kept, f)
	}
	for i := len(kept); i < len(h.fields); i++ {
		h.fields[i] = nil
	}
	h.fields = kept
	return removed
}

// Lines returns the physical header lines in order.
func (h *Header) Lines() []string {
	var lines []string
	for _, f := range h.fields {
		lines = append(lines, f.Lines()...)
	}
	return lines
}

func (h *Header) index(name string) int {
	for i, f := range h.fields {
		if f.Is(name) {
			return i
		}
	}
	return -1
}
