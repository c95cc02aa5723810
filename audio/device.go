package audio

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

var ErrCancelled = errors.New("selection cancelled")

// SelectDevice lets the user choose a capture device with the arrow keys.
// A single device is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	labels := make([]string, len(devices))
	for i, d := range devices {
		labels[i] = d.Name
		if IsBluetooth(d.Name) {
			labels[i] += " \x1b[33m[headset profile, lower quality]\x1b[0m"
		}
	}

	idx, err := Pick("Select input device", labels)
	if err != nil {
		return nil, err
	}
	return &devices[idx], nil
}

// Pick renders labels as a raw-mode list on stdin/stdout and returns the
// chosen index. Ctrl+C or Esc returns ErrCancelled.
func Pick(title string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, errors.New("nothing to pick from")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Printf("%s (↑/↓, Enter to confirm):\r\n\r\n", title)
		for i, l := range labels {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", l)
			} else {
				fmt.Printf("    %s\r\n", l)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("reading input: %w", err)
		}
		var done, cancelled bool
		cursor, done, cancelled = step(buf[:n], cursor, len(labels))
		if cancelled {
			fmt.Print("\r\n")
			return 0, ErrCancelled
		}
		if done {
			fmt.Print("\r\n")
			return cursor, nil
		}
		fmt.Printf("\x1b[%dA", len(labels)+2)
		render()
	}
}

// step applies one keypress to the cursor.
func step(key []byte, cursor, n int) (next int, done, cancelled bool) {
	switch {
	case len(key) == 1 && key[0] == 13:
		return cursor, true, false
	case len(key) == 1 && (key[0] == 3 || key[0] == 27):
		return cursor, false, true
	case len(key) == 1 && key[0] == 'j', len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'B':
		if cursor < n-1 {
			cursor++
		}
	case len(key) == 1 && key[0] == 'k', len(key) == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'A':
		if cursor > 0 {
			cursor--
		}
	}
	return cursor, false, false
}
