package geometry

import "fmt"

// Error reports an invalid solid: bad construction parameters or a declared
// tick count above MaxTicks. Solid is the offending solid, if any, and is
// for diagnostics only.
type Error struct {
	Message string
	Solid   Solid
}

func (e *Error) Error() string {
	if e.Solid == nil {
		return "geometry: " + e.Message
	}
	return fmt.Sprintf("geometry: %s %q: %s", e.Solid.TypeName(), e.Solid.Name(), e.Message)
}

func newError(s Solid, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Solid: s}
}
