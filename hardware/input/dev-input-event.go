package input

import (
	"io"
	"os"

	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/inputevent-go"
)

const DevInputEventTag = "dev-input-event"

// Linux input key codes for the keys this lock understands.
var devInputKeyMap = map[uint16]types.InputKey{
	2:  '1',
	3:  '2',
	4:  '3',
	5:  '4',
	6:  '5',
	7:  '6',
	8:  '7',
	9:  '8',
	10: '9',
	11: '0',
	14: types.KeyClear,   // KEY_BACKSPACE
	28: types.KeyConfirm, // KEY_ENTER
	79: '1',              // KEY_KP1..KP0
	80: '2',
	81: '3',
	75: '4',
	76: '5',
	77: '6',
	71: '7',
	72: '8',
	73: '9',
	82: '0',
	96: types.KeyConfirm, // KEY_KPENTER
}

type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return &DevInputEventSource{f: f}, nil
}

func (self *DevInputEventSource) Read() (types.InputEvent, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.InputEvent{}, err
		}
		if ie.Type != inputevent.EV_KEY || ie.Value != int32(inputevent.KeyStateDown) {
			continue
		}
		key, ok := devInputKeyMap[ie.Code]
		if !ok {
			continue
		}
		ev := types.InputEvent{
			Source: DevInputEventTag,
			Key:    key,
			Up:     false,
		}
		return ev, nil
	}
}
