package axis

import "fmt"

// Code classifies an AxisError.
type Code int

const (
	InvalidParameters Code = iota
	Corrupt
)

func (c Code) String() string {
	switch c {
	case InvalidParameters:
		return "invalid parameters"
	case Corrupt:
		return "corrupt stream"
	default:
		return "unknown axis error"
	}
}

// AxisError reports a recoverable failure from the axis package.
type AxisError struct {
	Code Code
	Msg  string
}

func (e AxisError) Error() string {
	return fmt.Sprintf("axis: %s: %s", e.Code, e.Msg)
}
