package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/magpie/internal/answer"
	"github.com/corvid-labs/magpie/internal/retrieval"
	"github.com/corvid-labs/magpie/internal/store"
	"github.com/corvid-labs/magpie/internal/websearch"
)

type fakeRetriever struct {
	result *retrieval.Result
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(context.Context, string) (*retrieval.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeWeb struct {
	snippets string
	err      error
	calls    int
}

func (f *fakeWeb) Search(context.Context, string) (string, error) {
	f.calls++
	return f.snippets, f.err
}

type fakeSynth struct {
	reply      string
	lastQuery  string
	lastMode   answer.Mode
	lastGround string
	calls      int
}

func (f *fakeSynth) Synthesize(_ context.Context, query string, mode answer.Mode, grounding string) string {
	f.calls++
	f.lastQuery = query
	f.lastMode = mode
	f.lastGround = grounding
	return f.reply
}

type fakeHistory struct {
	turns    []store.Turn
	saved    []store.Turn
	saveErr  error
	loadErr  error
	loadReqs int
}

func (f *fakeHistory) SaveMessage(_ context.Context, sessionID uuid.UUID, role, content string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, store.Turn{SessionID: sessionID, Role: role, Content: content, CreatedAt: time.Now()})
	return nil
}

func (f *fakeHistory) RecentHistory(_ context.Context, _ uuid.UUID, limit int) ([]store.Turn, error) {
	f.loadReqs++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if len(f.turns) > limit {
		return f.turns[len(f.turns)-limit:], nil
	}
	return f.turns, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(r *fakeRetriever, w *fakeWeb, s *fakeSynth, h *fakeHistory) *Orchestrator {
	return New(r, w, s, h, nil, discard())
}

func assertTurnPair(t *testing.T, h *fakeHistory, query, answerText string) {
	t.Helper()
	if len(h.saved) != 2 {
		t.Fatalf("expected exactly 2 persisted turns, got %d", len(h.saved))
	}
	if h.saved[0].Role != "user" || h.saved[0].Content != query {
		t.Errorf("first turn should be the user query, got %+v", h.saved[0])
	}
	if h.saved[1].Role != "assistant" || h.saved[1].Content != answerText {
		t.Errorf("second turn should be the assistant answer, got %+v", h.saved[1])
	}
}

func TestAsk_NoDocumentsEverIngested(t *testing.T) {
	ret := &fakeRetriever{err: retrieval.ErrNoIndex}
	web := &fakeWeb{}
	synth := &fakeSynth{}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, web, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "What is the revenue?")

	if got != NoDocumentsMessage {
		t.Errorf("expected fixed no-documents message, got %q", got)
	}
	if web.calls != 0 {
		t.Error("web search must never run when no documents exist")
	}
	if synth.calls != 0 {
		t.Error("synthesis must not run for the no-documents path")
	}
	assertTurnPair(t, hist, "What is the revenue?", NoDocumentsMessage)
}

func TestAsk_GroundedPath(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "Revenue grew 12% in Q1", BestSimilarity: 0.8}}
	web := &fakeWeb{}
	synth := &fakeSynth{reply: "Revenue grew 12% in the first quarter."}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, web, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "How much did revenue grow?")

	if got != "Revenue grew 12% in the first quarter." {
		t.Errorf("unexpected answer: %q", got)
	}
	if web.calls != 0 {
		t.Error("web search must not run on the grounded path")
	}
	if synth.lastMode != answer.ModeDocument {
		t.Error("expected document synthesis mode")
	}
	if synth.lastGround != "Revenue grew 12% in Q1" {
		t.Errorf("grounding not forwarded: %q", synth.lastGround)
	}
	assertTurnPair(t, hist, "How much did revenue grow?", got)
}

func TestAsk_WebFallbackPath(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: false, BestSimilarity: 0.2}}
	web := &fakeWeb{snippets: "Source 1 (https://a): snippet"}
	synth := &fakeSynth{reply: "According to the web, the answer is 42."}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, web, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "Something not in the docs")

	if got != "According to the web, the answer is 42." {
		t.Errorf("unexpected answer: %q", got)
	}
	if web.calls != 1 {
		t.Errorf("expected exactly one web search, got %d", web.calls)
	}
	if synth.lastMode != answer.ModeWeb {
		t.Error("expected web synthesis mode")
	}
	assertTurnPair(t, hist, "Something not in the docs", got)
}

func TestAsk_WebNoResults(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: false}}
	web := &fakeWeb{err: websearch.ErrNoResults}
	synth := &fakeSynth{}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, web, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "obscure question")

	if got != websearch.NoResultsMessage {
		t.Errorf("expected verbatim no-results message, got %q", got)
	}
	if synth.calls != 0 {
		t.Error("synthesis must not run when the web found nothing")
	}
	assertTurnPair(t, hist, "obscure question", got)
}

func TestAsk_RetrievalErrorDoesNotFallThrough(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("index backend exploded")}
	web := &fakeWeb{}
	synth := &fakeSynth{}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, web, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "query")

	if !strings.Contains(got, "Sorry, I encountered an error") {
		t.Errorf("expected error disclosure, got %q", got)
	}
	if web.calls != 0 {
		t.Error("retrieval execution failure must not trigger web search")
	}
	assertTurnPair(t, hist, "query", got)
}

func TestAsk_EmptyAnswerReplacedWithApology(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "some context"}}
	synth := &fakeSynth{reply: "   \n"}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "query")

	if got != ApologyMessage {
		t.Errorf("expected apology for blank answer, got %q", got)
	}
	assertTurnPair(t, hist, "query", ApologyMessage)
}

func TestAsk_PersistenceFailureDoesNotAbortAnswer(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "ctx"}}
	synth := &fakeSynth{reply: "the answer"}
	hist := &fakeHistory{saveErr: errors.New("store down")}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	got := o.Ask(context.Background(), uuid.New(), "query")
	if got != "the answer" {
		t.Errorf("persistence failure must not change the answer, got %q", got)
	}
}

func TestAsk_HistoryGate_CueWithHistory(t *testing.T) {
	turns := []store.Turn{
		{Role: "user", Content: "What is the revenue?"},
		{Role: "assistant", Content: "Revenue grew 12% in Q1."},
	}
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "ctx"}}
	synth := &fakeSynth{reply: "contextual answer"}
	hist := &fakeHistory{turns: turns}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	o.Ask(context.Background(), uuid.New(), "what did you say earlier?")

	if hist.loadReqs != 1 {
		t.Fatalf("expected one history load, got %d", hist.loadReqs)
	}
	if !strings.Contains(synth.lastQuery, "Conversation History:") {
		t.Error("prompt should carry the history block")
	}
	if !strings.Contains(synth.lastQuery, "User: What is the revenue?") {
		t.Error("prompt should contain role-labelled prior turns")
	}
	if !strings.Contains(synth.lastQuery, "Assistant: Revenue grew 12% in Q1.") {
		t.Error("prompt should contain the assistant turn")
	}
}

func TestAsk_HistoryGate_CueWithoutHistory(t *testing.T) {
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "ctx"}}
	synth := &fakeSynth{reply: "answer"}
	hist := &fakeHistory{}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	o.Ask(context.Background(), uuid.New(), "what did you say earlier?")

	if synth.lastQuery != "Current Query: what did you say earlier?" {
		t.Errorf("expected raw query without history, got %q", synth.lastQuery)
	}
}

func TestAsk_HistoryGate_NoCue(t *testing.T) {
	turns := []store.Turn{{Role: "user", Content: "old question"}}
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "ctx"}}
	synth := &fakeSynth{reply: "answer"}
	hist := &fakeHistory{turns: turns}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	o.Ask(context.Background(), uuid.New(), "What is the revenue?")

	if hist.loadReqs != 0 {
		t.Error("history must not be loaded without a retrospective cue")
	}
	if strings.Contains(synth.lastQuery, "Conversation History:") {
		t.Error("prompt must not carry history without a cue")
	}
}

func TestAsk_HistoryCappedAtTen(t *testing.T) {
	var turns []store.Turn
	for i := 0; i < 30; i++ {
		turns = append(turns, store.Turn{Role: "user", Content: "message"})
	}
	ret := &fakeRetriever{result: &retrieval.Result{Found: true, Context: "ctx"}}
	synth := &fakeSynth{reply: "answer"}
	hist := &fakeHistory{turns: turns}
	o := newTestOrchestrator(ret, &fakeWeb{}, synth, hist)

	o.Ask(context.Background(), uuid.New(), "what did you say before?")

	if n := strings.Count(synth.lastQuery, "User: message"); n != 10 {
		t.Errorf("expected 10 injected turns, got %d", n)
	}
}

func TestHasHistoryCue(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"what did you say earlier", true},
		{"my PREVIOUS question", true},
		{"the one before that", true},
		{"last quarter results", true},
		{"What is the revenue?", false},
		{"tell me about Q1", false},
	}
	for _, tt := range tests {
		if got := hasHistoryCue(tt.query); got != tt.want {
			t.Errorf("hasHistoryCue(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
