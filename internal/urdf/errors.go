package urdf

import "fmt"

// StructuralError reports a schema or structure violation in the source
// document. It always carries the offending tag and its 1-based source line
// and is fatal to the whole parse: no partial document is returned.
type StructuralError struct {
	Tag  string
	Line int
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s (line: %d)", e.Tag, e.Msg, e.Line)
}

func structuralf(tag string, line int, format string, args ...any) error {
	return &StructuralError{Tag: tag, Line: line, Msg: fmt.Sprintf(format, args...)}
}
