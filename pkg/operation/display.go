package operation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hoppxi/ddclight/internal/brightness"
)

var ErrInvalidCommand = errors.New("invalid brightness command")

type Op int

const (
	OpSet Op = iota
	OpRaise
	OpLower
)

// Command is one brightness change, applied with a floor.
type Command struct {
	Op    Op
	Value uint32
}

func Set(v uint32) Command   { return Command{Op: OpSet, Value: v} }
func Raise(v uint32) Command { return Command{Op: OpRaise, Value: v} }
func Lower(v uint32) Command { return Command{Op: OpLower, Value: v} }

// Parse reads brightnessctl-style values: "40%" sets, "+5%" or "5%+"
// raises, "-5%" or "5%-" lowers. The percent sign is optional.
func Parse(s string) (Command, error) {
	s = strings.TrimSpace(s)
	op := OpSet

	switch {
	case strings.HasPrefix(s, "+"):
		op, s = OpRaise, s[1:]
	case strings.HasPrefix(s, "-"):
		op, s = OpLower, s[1:]
	case strings.HasSuffix(s, "+"):
		op, s = OpRaise, s[:len(s)-1]
	case strings.HasSuffix(s, "-"):
		op, s = OpLower, s[:len(s)-1]
	}
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, s)
	}
	return Command{Op: op, Value: uint32(v)}, nil
}

func (c Command) String() string {
	switch c.Op {
	case OpRaise:
		return fmt.Sprintf("+%d%%", c.Value)
	case OpLower:
		return fmt.Sprintf("-%d%%", c.Value)
	default:
		return fmt.Sprintf("%d%%", c.Value)
	}
}

// Apply runs the command against b, never settling below floor percent.
func (c Command) Apply(b brightness.Backend, floor uint32) error {
	switch c.Op {
	case OpRaise:
		return b.Raise(c.Value, floor)
	case OpLower:
		return b.Lower(c.Value, floor)
	case OpSet:
		return b.Set(c.Value, floor)
	default:
		return fmt.Errorf("%w: op %d", ErrInvalidCommand, c.Op)
	}
}
