package asm

import "fmt"

// AssemblerError is the single tagged error type MicrAsm surfaces.
// Every error carries the source line it was raised on, the same way
// every micrasm_error::generr call in the original carries a "line %d"
// prefix.
type AssemblerError struct {
	Line    int
	Message string
}

func (e *AssemblerError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errf(line int, format string, args ...any) error {
	return &AssemblerError{Line: line, Message: fmt.Sprintf(format, args...)}
}
