package types

import "fmt"

type EventKind uint8

const (
	EventInvalid EventKind = iota
	EventInput
	EventTime
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventInvalid:
		return "Invalid"
	case EventInput:
		return "Input"
	case EventTime:
		return "Time"
	case EventStop:
		return "Stop"
	}
	return fmt.Sprintf("?%d", uint8(k))
}

type Event struct {
	Input InputEvent
	Kind  EventKind
}

func (e *Event) String() string {
	inner := ""
	if e.Kind == EventInput {
		inner = fmt.Sprintf(" source=%s key=%d up=%t", e.Input.Source, e.Input.Key, e.Input.Up)
	}
	return fmt.Sprintf("Event(%s%s)", e.Kind.String(), inner)
}

type InputKey uint16

// Digit keys carry their ASCII value. Named keys sit above the ASCII range.
const (
	KeyInvalid InputKey = 0
	KeyClear   InputKey = 0x100 + iota
	KeyConfirm
)

type InputEvent struct {
	Source string
	Key    InputKey
	Up     bool
}

func (e *InputEvent) IsZero() bool  { return e.Key == 0 }
func (e *InputEvent) IsDigit() bool { return e.Key >= '0' && e.Key <= '9' }
func (e *InputEvent) Digit() byte   { return byte(e.Key - '0') }

func (e *InputEvent) String() string {
	return fmt.Sprintf("InputEvent(source=%s key=%d up=%t)", e.Source, e.Key, e.Up)
}
