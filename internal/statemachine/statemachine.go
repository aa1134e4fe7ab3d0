// Package statemachine implements the three-state camera state machine
// Off -> Connected -> Capturing, with strictly enforced legal transitions
// serialised under a mutex, as an explicit command -> event -> state
// transition table rather than an object-per-state representation (the
// original's boost::statechart states), since the diagram is small enough
// that object-per-state indirection buys nothing in Go.
package statemachine

import (
	"sync"

	"github.com/stfc-aeg/odin-orca-quest/internal/camerror"
)

// State is one of the three camera states.
type State int

const (
	Off State = iota
	Connected
	Capturing
)

var stateNames = map[State]string{
	Off:       "disconnected",
	Connected: "connected",
	Capturing: "capturing",
}

// Name returns the fixed, human-readable name for s.
func (s State) Name() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Event is one of the four state-transition events.
type Event int

const (
	EventConnect Event = iota
	EventDisconnect
	EventStartCapture
	EventEndCapture
)

var eventNames = map[Event]string{
	EventConnect:      "connect",
	EventDisconnect:   "disconnect",
	EventStartCapture: "capture",
	EventEndCapture:   "end_capture",
}

// commandToEvent is the command-name -> event bimap.
var commandToEvent = map[string]Event{
	"connect":      EventConnect,
	"disconnect":   EventDisconnect,
	"capture":      EventStartCapture,
	"end_capture":  EventEndCapture,
}

// Hooks are the controller callbacks invoked before a transition commits.
// A hook returning false discards the event; the state is left unchanged.
type Hooks interface {
	Connect() bool
	Disconnect() bool
	StartCapture() bool
	EndCapture() bool
}

type transition struct {
	next State
	hook func(Hooks) bool
}

// transitionTable maps (current state, event) -> transition. Any
// (state, event) pair absent from this table is illegal in that state.
var transitionTable = map[State]map[Event]transition{
	Off: {
		EventConnect: {next: Connected, hook: Hooks.Connect},
	},
	Connected: {
		EventDisconnect:   {next: Off, hook: Hooks.Disconnect},
		EventStartCapture: {next: Capturing, hook: Hooks.StartCapture},
	},
	Capturing: {
		EventEndCapture: {next: Connected, hook: Hooks.EndCapture},
	},
}

// StateMachine is the camera state machine. Zero value is not usable;
// construct with New.
type StateMachine struct {
	mu    sync.Mutex
	state State
	hooks Hooks
}

// New returns a state machine in the Off state, driven by hooks.
func New(hooks Hooks) *StateMachine {
	return &StateMachine{state: Off, hooks: hooks}
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// CurrentName returns the current state's fixed name.
func (sm *StateMachine) CurrentName() string {
	return sm.Current().Name()
}

// ExecuteCommand maps command to an event and attempts the corresponding
// transition. It is serialised against concurrent callers under sm's
// mutex.
func (sm *StateMachine) ExecuteCommand(command string) error {
	event, known := commandToEvent[command]
	if !known {
		return camerror.UnknownCommand{Command: command}
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	legal, ok := transitionTable[sm.state][event]
	if !ok {
		return camerror.IllegalTransition{Event: eventNames[event], State: sm.state.Name()}
	}
	if !legal.hook(sm.hooks) {
		return camerror.CommandRejected{Command: command}
	}
	sm.state = legal.next
	return nil
}
