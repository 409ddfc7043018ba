package orchestrator

import "testing"

func TestNext_ValidTransitions(t *testing.T) {
	tests := []struct {
		from  State
		event Event
		want  State
	}{
		{StateStart, EventBegin, StateDocumentSearch},
		{StateDocumentSearch, EventGrounded, StateEnd},
		{StateDocumentSearch, EventNotFound, StateWebSearch},
		{StateDocumentSearch, EventRetrievalFailed, StateEnd},
		{StateWebSearch, EventWebDone, StateEnd},
	}
	for _, tt := range tests {
		got, err := Next(tt.from, tt.event)
		if err != nil {
			t.Errorf("Next(%s, %s): unexpected error %v", tt.from, tt.event, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Next(%s, %s) = %s, want %s", tt.from, tt.event, got, tt.want)
		}
	}
}

func TestNext_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from  State
		event Event
	}{
		{StateStart, EventGrounded},
		{StateStart, EventWebDone},
		{StateDocumentSearch, EventBegin},
		{StateDocumentSearch, EventWebDone},
		{StateWebSearch, EventGrounded},
		{StateWebSearch, EventNotFound},
		{StateEnd, EventBegin},
		{StateEnd, EventWebDone},
	}
	for _, tt := range tests {
		if _, err := Next(tt.from, tt.event); err == nil {
			t.Errorf("Next(%s, %s): expected error", tt.from, tt.event)
		}
	}
}

func TestNext_RetrievalFailureNeverReachesWebSearch(t *testing.T) {
	got, err := Next(StateDocumentSearch, EventRetrievalFailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == StateWebSearch {
		t.Error("retrieval failure must not route to web search")
	}
	if got != StateEnd {
		t.Errorf("expected StateEnd, got %s", got)
	}
}
