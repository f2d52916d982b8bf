// Package fsm models the narration lifecycle: idle, narrating, and interrupted.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle        State = "idle"
	StateNarrating   State = "narrating"
	StateInterrupted State = "interrupted"
)

const (
	// EventSpeak hands a passage to text-to-speech.
	EventSpeak Event = "speak"
	// EventFinish marks natural completion of the last queued passage.
	EventFinish Event = "finish"
	// EventInterrupt is a trigger phrase heard while narration is active.
	EventInterrupt Event = "interrupt"
	// EventAnswer starts narrating the interrupting query's reply.
	EventAnswer Event = "answer"
	// EventCancel drops everything and returns to idle.
	EventCancel Event = "cancel"
)

func Transition(current State, event Event) (State, error) {
	if event == EventCancel {
		switch current {
		case StateIdle, StateNarrating, StateInterrupted:
			return StateIdle, nil
		}
	}

	switch current {
	case StateIdle:
		switch event {
		case EventSpeak:
			return StateNarrating, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateNarrating:
		switch event {
		case EventSpeak:
			return StateNarrating, nil
		case EventFinish:
			return StateIdle, nil
		case EventInterrupt:
			return StateInterrupted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateInterrupted:
		switch event {
		case EventAnswer:
			return StateNarrating, nil
		case EventInterrupt:
			return StateInterrupted, nil
		case EventFinish:
			// Interrupting query produced nothing to say.
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
