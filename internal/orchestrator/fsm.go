package orchestrator

import "fmt"

// State is a node in the query pipeline's finite-state machine.
type State int

const (
	StateStart State = iota
	StateDocumentSearch
	StateWebSearch
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateDocumentSearch:
		return "document_search"
	case StateWebSearch:
		return "web_search"
	case StateEnd:
		return "end"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event is the outcome of executing a state's work.
type Event int

const (
	// EventBegin starts a query.
	EventBegin Event = iota
	// EventGrounded means document retrieval produced relevant context.
	EventGrounded
	// EventNotFound means retrieval ran but nothing was relevant.
	EventNotFound
	// EventRetrievalFailed means retrieval could not run at all. Web
	// search is a fallback for missed grounding, not for missing
	// documents, so this terminates the pipeline.
	EventRetrievalFailed
	// EventWebDone means the web-search stage finished, whatever it found.
	EventWebDone
)

func (e Event) String() string {
	switch e {
	case EventBegin:
		return "begin"
	case EventGrounded:
		return "grounded"
	case EventNotFound:
		return "not_found"
	case EventRetrievalFailed:
		return "retrieval_failed"
	case EventWebDone:
		return "web_done"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Next is the pure transition function. It has no side effects and no
// I/O, so the routing policy is testable on its own.
func Next(s State, e Event) (State, error) {
	switch {
	case s == StateStart && e == EventBegin:
		return StateDocumentSearch, nil
	case s == StateDocumentSearch && e == EventGrounded:
		return StateEnd, nil
	case s == StateDocumentSearch && e == EventNotFound:
		return StateWebSearch, nil
	case s == StateDocumentSearch && e == EventRetrievalFailed:
		return StateEnd, nil
	case s == StateWebSearch && e == EventWebDone:
		return StateEnd, nil
	}
	return s, fmt.Errorf("no transition from %s on %s", s, e)
}
