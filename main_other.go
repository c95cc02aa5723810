//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The hotkey backend on macOS and Windows needs the main thread's event loop.
func main() {
	mainthread.Init(run)
}
