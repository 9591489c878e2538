package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Renderer formats Diagnostics against one named source, mirroring the
// teacher's ErrorReporter.FormatError's Rust-style layout: a colored
// `level[code/category]: message` header, a `--> file:line:col` location line,
// a line of context on either side of the offending line, an
// underline marker, then suggestions/notes/help.
type Renderer struct {
	filename string
	source   string
	lines    []string
}

// NewRenderer returns a Renderer for filename's source text.
func NewRenderer(filename, source string) *Renderer {
	return &Renderer{filename: filename, source: source, lines: strings.Split(source, "\n")}
}

// Format renders one diagnostic.
func (r *Renderer) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s/%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Category, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	width := lineNumberWidth(d.Loc.Line)
	indent := strings.Repeat(" ", width)

	out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("-->"), d.Loc.String()))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if d.Loc.Line > 0 && d.Loc.Line <= len(r.lines) {
		if d.Loc.Line > 1 {
			out.WriteString(fmt.Sprintf("%s %s %s\n",
				dim(fmt.Sprintf("%*d", width, d.Loc.Line-1)), dim("│"), r.lines[d.Loc.Line-2]))
		}

		out.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, d.Loc.Line)), dim("│"), r.lines[d.Loc.Line-1]))
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker(d.Loc.Column, d.Length, d.Level)))

		if d.Loc.Line < len(r.lines) {
			out.WriteString(fmt.Sprintf("%s %s %s\n",
				dim(fmt.Sprintf("%*d", width, d.Loc.Line+1)), dim("│"), r.lines[d.Loc.Line]))
		}
	}

	if len(d.Suggestions) > 0 {
		out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))
		cyan := color.New(color.FgCyan).SprintFunc()
		for i, s := range d.Suggestions {
			if i == 0 {
				out.WriteString(fmt.Sprintf("%s %s %s: %s\n", indent, cyan("help"), cyan("try"), s.Message))
			} else {
				out.WriteString(fmt.Sprintf("%s %s %s\n", indent, cyan("    "), s.Message))
			}
			if s.Replacement != "" {
				out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), cyan(s.Replacement)))
			}
		}
	}

	blue := color.New(color.FgBlue).SprintFunc()
	for _, note := range d.Notes {
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), blue("note:"), note))
	}

	if d.Help != "" {
		green := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), green("help:"), d.Help))
	}

	out.WriteString("\n")
	return out.String()
}

// FormatAll renders every diagnostic in h, in report order.
func (r *Renderer) FormatAll(h *Handler) string {
	var out strings.Builder
	for _, d := range h.Diagnostics() {
		out.WriteString(r.Format(d))
	}
	return out.String()
}

func levelColor(l Level) func(...interface{}) string {
	switch l {
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case LevelHelp:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func marker(column, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))

	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == LevelWarning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + markerColor(strings.Repeat("^", length))
}

func lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
