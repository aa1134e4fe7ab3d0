package statemachine

import (
	"errors"
	"testing"

	"github.com/stfc-aeg/odin-orca-quest/internal/camerror"
)

type fakeHooks struct {
	connect, disconnect, startCapture, endCapture bool
}

func (f *fakeHooks) Connect() bool      { return f.connect }
func (f *fakeHooks) Disconnect() bool   { return f.disconnect }
func (f *fakeHooks) StartCapture() bool { return f.startCapture }
func (f *fakeHooks) EndCapture() bool   { return f.endCapture }

func allowAll() *fakeHooks {
	return &fakeHooks{connect: true, disconnect: true, startCapture: true, endCapture: true}
}

func TestLegalTransitionSequence(t *testing.T) {
	sm := New(allowAll())
	if sm.CurrentName() != "disconnected" {
		t.Fatalf("initial state = %q, want disconnected", sm.CurrentName())
	}
	steps := []struct {
		command string
		want    string
	}{
		{"connect", "connected"},
		{"capture", "capturing"},
		{"end_capture", "connected"},
		{"disconnect", "disconnected"},
	}
	for _, s := range steps {
		if err := sm.ExecuteCommand(s.command); err != nil {
			t.Fatalf("ExecuteCommand(%q): %v", s.command, err)
		}
		if sm.CurrentName() != s.want {
			t.Fatalf("after %q: state = %q, want %q", s.command, sm.CurrentName(), s.want)
		}
	}
}

func TestIllegalTransitionsAreRejected(t *testing.T) {
	cases := []struct {
		name    string
		command string
	}{
		{"capture before connect", "capture"},
		{"end_capture before connect", "end_capture"},
		{"disconnect before connect", "disconnect"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sm := New(allowAll())
			err := sm.ExecuteCommand(c.command)
			var illegal camerror.IllegalTransition
			if !errors.As(err, &illegal) {
				t.Fatalf("ExecuteCommand(%q) = %v, want camerror.IllegalTransition", c.command, err)
			}
			if sm.CurrentName() != "disconnected" {
				t.Fatalf("state changed after a rejected transition: %q", sm.CurrentName())
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	sm := New(allowAll())
	err := sm.ExecuteCommand("reticulate_splines")
	var unknown camerror.UnknownCommand
	if !errors.As(err, &unknown) {
		t.Fatalf("ExecuteCommand(garbage) = %v, want camerror.UnknownCommand", err)
	}
}

func TestHookRejectionLeavesStateUnchanged(t *testing.T) {
	hooks := allowAll()
	hooks.connect = false
	sm := New(hooks)

	err := sm.ExecuteCommand("connect")
	var rejected camerror.CommandRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("ExecuteCommand(connect) = %v, want camerror.CommandRejected", err)
	}
	if sm.CurrentName() != "disconnected" {
		t.Fatalf("state advanced despite a false hook: %q", sm.CurrentName())
	}
}
