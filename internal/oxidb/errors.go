package oxidb

import (
	"errors"
	"fmt"
)

// ErrBroken is returned by a client whose connection was dropped.
var ErrBroken = errors.New("oxidb: connection broken")

// Error is returned when the OxiDB server returns an error response.
type Error struct {
	Cmd string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxidb: %s: %s", e.Cmd, e.Msg)
}
