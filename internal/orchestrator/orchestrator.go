// Package orchestrator sequences a query through document retrieval, the
// conditional web fallback, answer synthesis and history persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-labs/magpie/internal/answer"
	"github.com/corvid-labs/magpie/internal/retrieval"
	"github.com/corvid-labs/magpie/internal/store"
	"github.com/corvid-labs/magpie/internal/websearch"
)

const (
	// NoDocumentsMessage terminates a query when nothing was ever ingested.
	NoDocumentsMessage = "Error: No PDF documents uploaded yet. Please upload a PDF first."
	// ApologyMessage replaces an empty or whitespace-only answer.
	ApologyMessage = "I apologize, but I couldn't find relevant information to answer your question."

	// SubjectQueryAnswered is published after each completed query.
	SubjectQueryAnswered = "magpie.query.answered"

	historyLimit        = 10
	defaultStageTimeout = 30 * time.Second
)

// historyCues gate whether prior turns get injected into the prompt.
// A crude keyword heuristic, kept deliberately cheap.
var historyCues = []string{"earlier", "previous", "before", "last", "what did you say"}

type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, query string, mode answer.Mode, grounding string) string
}

type HistoryStore interface {
	SaveMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error
	RecentHistory(ctx context.Context, sessionID uuid.UUID, limit int) ([]store.Turn, error)
}

type EventPublisher interface {
	Publish(subject string, data any) error
}

type Orchestrator struct {
	retriever    Retriever
	web          WebSearcher
	synth        Synthesizer
	history      HistoryStore
	events       EventPublisher
	logger       *slog.Logger
	stageTimeout time.Duration

	mu           sync.Mutex
	sessionLocks map[uuid.UUID]*sync.Mutex
}

// New wires the orchestrator. events may be nil to disable publishing.
func New(retriever Retriever, web WebSearcher, synth Synthesizer, history HistoryStore, events EventPublisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		retriever:    retriever,
		web:          web,
		synth:        synth,
		history:      history,
		events:       events,
		logger:       logger,
		stageTimeout: defaultStageTimeout,
		sessionLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// sessionLock serializes queries within one session so the persisted
// user/assistant turn pairs of concurrent calls cannot interleave.
func (o *Orchestrator) sessionLock(id uuid.UUID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.sessionLocks[id]
	if !ok {
		l = &sync.Mutex{}
		o.sessionLocks[id] = l
	}
	return l
}

// Ask answers one query. It always returns text and always appends
// exactly one user turn and one assistant turn to the session history,
// including on every error path.
func (o *Orchestrator) Ask(ctx context.Context, sessionID uuid.UUID, query string) string {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	prompt := o.buildPrompt(ctx, sessionID, query)

	finalAnswer, mode := o.run(ctx, query, prompt)

	if strings.TrimSpace(finalAnswer) == "" {
		finalAnswer = ApologyMessage
	}

	o.persistTurns(ctx, sessionID, query, finalAnswer)

	if o.events != nil {
		evt := map[string]any{
			"session_id": sessionID.String(),
			"grounding":  mode,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if err := o.events.Publish(SubjectQueryAnswered, evt); err != nil {
			o.logger.Warn("failed to publish query event", "error", err)
		}
	}

	return finalAnswer
}

// run drives the state machine to completion and returns the answer plus
// the grounding mode that produced it ("document", "web" or "none").
func (o *Orchestrator) run(ctx context.Context, query, prompt string) (string, string) {
	state, err := Next(StateStart, EventBegin)
	if err != nil {
		return "Sorry, I encountered an error while processing your query: " + err.Error(), "none"
	}

	var finalAnswer string
	mode := "none"

	for state != StateEnd {
		var event Event

		switch state {
		case StateDocumentSearch:
			res, err := o.retrieveStage(ctx, query)
			switch {
			case errors.Is(err, retrieval.ErrNoIndex):
				event = EventRetrievalFailed
				finalAnswer = NoDocumentsMessage
			case err != nil:
				event = EventRetrievalFailed
				o.logger.Error("document search failed", "error", err)
				finalAnswer = "Sorry, I encountered an error while processing your query: " + err.Error()
			case res.Found:
				event = EventGrounded
				mode = "document"
				o.logger.Info("query grounded in documents", "best_similarity", res.BestSimilarity)
				finalAnswer = o.synthStage(ctx, prompt, answer.ModeDocument, res.Context)
			default:
				event = EventNotFound
				o.logger.Info("no relevant documents, falling back to web search", "best_similarity", res.BestSimilarity)
			}

		case StateWebSearch:
			event = EventWebDone
			mode = "web"
			snippets, err := o.webStage(ctx, query)
			switch {
			case errors.Is(err, websearch.ErrNoResults):
				finalAnswer = websearch.NoResultsMessage
			case err != nil:
				o.logger.Error("web search failed", "error", err)
				finalAnswer = "Sorry, I encountered an error while processing your query: " + err.Error()
			default:
				finalAnswer = o.synthStage(ctx, prompt, answer.ModeWeb, snippets)
			}

		default:
			return "Sorry, I encountered an error while processing your query: stuck in " + state.String(), mode
		}

		next, err := Next(state, event)
		if err != nil {
			o.logger.Error("invalid transition", "state", state.String(), "event", event.String())
			return "Sorry, I encountered an error while processing your query: " + err.Error(), mode
		}
		o.logger.Debug("transition", "from", state.String(), "event", event.String(), "to", next.String())
		state = next
	}

	return finalAnswer, mode
}

func (o *Orchestrator) retrieveStage(ctx context.Context, query string) (*retrieval.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.retriever.Retrieve(ctx, query)
}

func (o *Orchestrator) webStage(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.web.Search(ctx, query)
}

func (o *Orchestrator) synthStage(ctx context.Context, prompt string, mode answer.Mode, grounding string) string {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()
	return o.synth.Synthesize(ctx, prompt, mode, grounding)
}

// buildPrompt injects recent turns when the query looks retrospective and
// history actually exists; otherwise the raw query passes through.
func (o *Orchestrator) buildPrompt(ctx context.Context, sessionID uuid.UUID, query string) string {
	if !hasHistoryCue(query) {
		return "Current Query: " + query
	}

	turns, err := o.history.RecentHistory(ctx, sessionID, historyLimit)
	if err != nil {
		o.logger.Warn("failed to load history, using raw query", "session_id", sessionID, "error", err)
		return "Current Query: " + query
	}

	var lines []string
	for _, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		lines = append(lines, capitalize(t.Role)+": "+content)
	}
	if len(lines) == 0 {
		return "Current Query: " + query
	}

	return fmt.Sprintf(`Conversation History:
%s

Current Query: %s

Please answer the query, taking into account the conversation history if relevant.
If the query refers to prior messages, use the history to provide a context-aware response.
Otherwise, answer from the retrieved context alone.`, strings.Join(lines, "\n"), query)
}

func hasHistoryCue(query string) bool {
	q := strings.ToLower(query)
	for _, cue := range historyCues {
		if strings.Contains(q, cue) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// persistTurns appends the query/answer pair. Failures are logged and
// swallowed: the user already has an answer, losing it would be worse.
func (o *Orchestrator) persistTurns(ctx context.Context, sessionID uuid.UUID, query, finalAnswer string) {
	if err := o.history.SaveMessage(ctx, sessionID, "user", query); err != nil {
		o.logger.Error("failed to persist user turn", "session_id", sessionID, "error", err)
	}
	if err := o.history.SaveMessage(ctx, sessionID, "assistant", finalAnswer); err != nil {
		o.logger.Error("failed to persist assistant turn", "session_id", sessionID, "error", err)
	}
}
