package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not legal in the
// current state.
var ErrInvalidTransition = errors.New("invalid playback transition")

// State is the playback state of a session.
type State int32

const (
	// StateStopped means no stream is open; the cursor is at zero.
	StateStopped State = iota
	// StatePlaying means the device is pulling samples.
	StatePlaying
	// StatePaused means the stream is open but halted.
	StatePaused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Event drives a state transition.
type Event int

const (
	EventPlay Event = iota
	EventPause
	EventResume
	EventStop
	// EventFinish is raised when the cursor reaches the end of the buffer.
	EventFinish
)

func (e Event) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventStop:
		return "stop"
	case EventFinish:
		return "finish"
	default:
		return "unknown"
	}
}

var transitions = map[State]map[Event]State{
	StateStopped: {
		EventPlay: StatePlaying,
		EventStop: StateStopped,
	},
	StatePlaying: {
		EventPause:  StatePaused,
		EventStop:   StateStopped,
		EventFinish: StateStopped,
	},
	StatePaused: {
		EventResume: StatePlaying,
		EventStop:   StateStopped,
	},
}

// Transition returns the state reached from "from" on ev, or
// ErrInvalidTransition.
func Transition(from State, ev Event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, ev, from)
}
