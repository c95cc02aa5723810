// Package hotkey delivers a global Ctrl+Shift+Space press, used to turn the
// microphone on and off while another window has focus.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	// Pressed fires once per press of the full combination.
	Pressed() <-chan struct{}
}

const Combo = "Ctrl+Shift+Space"

// combo tracks modifier state over a stream of key events and reports
// when the trigger key goes down with both modifiers held.
type combo struct {
	ctrl, shift, trigger bool
}

type keyKind int

const (
	keyOther keyKind = iota
	keyCtrl
	keyShift
	keyTrigger
)

// feed applies one key event and reports whether it completed the combo.
// Auto-repeat of a held trigger does not fire again.
func (c *combo) feed(k keyKind, down bool) bool {
	switch k {
	case keyCtrl:
		c.ctrl = down
	case keyShift:
		c.shift = down
	case keyTrigger:
		if !down {
			c.trigger = false
			return false
		}
		if c.trigger {
			return false
		}
		c.trigger = true
		return c.ctrl && c.shift
	}
	return false
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
