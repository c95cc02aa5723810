package hotkey

import (
	"testing"
	"time"
)

func TestComboFiresOnTriggerWithModifiers(t *testing.T) {
	var c combo
	if c.feed(keyTrigger, true) {
		t.Fatal("fired without modifiers")
	}
	c.feed(keyTrigger, false)

	c.feed(keyCtrl, true)
	c.feed(keyShift, true)
	if !c.feed(keyTrigger, true) {
		t.Fatal("did not fire with ctrl+shift held")
	}
	if c.feed(keyTrigger, true) {
		t.Error("fired again while trigger still held")
	}
	c.feed(keyTrigger, false)
	if !c.feed(keyTrigger, true) {
		t.Error("did not fire on second press")
	}
}

func TestComboRequiresBothModifiers(t *testing.T) {
	var c combo
	c.feed(keyCtrl, true)
	if c.feed(keyTrigger, true) {
		t.Error("fired with ctrl only")
	}
	c.feed(keyTrigger, false)
	c.feed(keyShift, true)
	c.feed(keyCtrl, false)
	if c.feed(keyTrigger, true) {
		t.Error("fired after ctrl released")
	}
}

func TestComboIgnoresOtherKeys(t *testing.T) {
	var c combo
	c.feed(keyCtrl, true)
	c.feed(keyShift, true)
	if c.feed(keyOther, true) {
		t.Error("other key fired")
	}
}

func TestFakePressDoesNotBlock(t *testing.T) {
	f := NewFake()
	f.Press()
	f.Press()
	select {
	case <-f.Pressed():
	case <-time.After(time.Second):
		t.Fatal("press not delivered")
	}
}
