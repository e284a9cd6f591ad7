package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through the same printer
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// printer writes the terminal rendering of a page
type printer struct {
	w io.Writer
}

// Header prints a framed title
func (p printer) Header(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, doubleLine)
	fmt.Fprintf(p.w, "  %s\n", title)
	fmt.Fprintln(p.w, doubleLine)
}

// Section prints a sub-title
func (p printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "▸ %s\n", title)
	fmt.Fprintln(p.w, singleLine)
}

// KeyValue prints key-value pairs
func (p printer) KeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(p.w, "   %-*s : %s\n", keyWidth, key, value)
}

// Warning prints a warning message
func (p printer) Warning(message string) {
	fmt.Fprintf(p.w, "⚠️  %s\n", message)
}

// Success prints a success message
func (p printer) Success(message string) {
	fmt.Fprintf(p.w, "✅ %s\n", message)
}

// Info prints an info message
func (p printer) Info(message string) {
	fmt.Fprintf(p.w, "ℹ️  %s\n", message)
}

// Table prints a header row and its records, each column as wide as its
// widest cell
func (p printer) Table(records [][]string) {
	if len(records) == 0 {
		return
	}

	widths := make([]int, len(records[0]))
	for _, r := range records {
		for i, cell := range r {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	p.row(records[0], widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(p.w, strings.Repeat("─", total))

	for _, r := range records[1:] {
		p.row(r, widths)
	}
}

func (p printer) row(values []string, widths []int) {
	var b strings.Builder
	for i, val := range values {
		if i >= len(widths) {
			break
		}
		b.WriteString(val)
		if i < len(values)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(val)+2))
		}
	}
	fmt.Fprintln(p.w, strings.TrimRight(b.String(), " "))
}
