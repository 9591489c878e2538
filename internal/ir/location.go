package ir

import "fmt"

// Location is the source-location attribute every Operation carries,
// grounded on the teacher's ast.Position but detached from any single
// front end.
type Location struct {
	Filename string
	Line     int
	Column   int
}

// Unknown is used by passes that synthesize ops with no traceable source.
var Unknown = Location{Filename: "<unknown>"}

func (l Location) String() string {
	if l.Filename == "" || l.Filename == "<unknown>" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}
