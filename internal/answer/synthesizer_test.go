package answer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeGenerator struct {
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (f *fakeGenerator) Complete(_ context.Context, system, user string, _ int) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSynthesize_DocumentMode(t *testing.T) {
	gen := &fakeGenerator{reply: "Revenue grew 12% in Q1."}
	s := New(gen, discard())

	got := s.Synthesize(context.Background(), "How much did revenue grow?", ModeDocument, "Revenue grew 12% in Q1")
	if got != "Revenue grew 12% in Q1." {
		t.Errorf("unexpected answer: %q", got)
	}
	if !strings.Contains(gen.lastUser, "PDF Information:") {
		t.Error("document prompt template not used")
	}
	if !strings.Contains(gen.lastUser, "How much did revenue grow?") {
		t.Error("query missing from prompt")
	}
	if gen.lastSystem == "" {
		t.Error("system prompt missing")
	}
}

func TestSynthesize_WebMode(t *testing.T) {
	gen := &fakeGenerator{reply: "According to the web..."}
	s := New(gen, discard())

	s.Synthesize(context.Background(), "query", ModeWeb, "Source 1 (https://a): snippet")
	if !strings.Contains(gen.lastUser, "searched the web") {
		t.Error("web prompt template not used")
	}
}

func TestSynthesize_FallsBackToExtractive(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	s := New(gen, discard())

	got := s.Synthesize(context.Background(), "query", ModeDocument, "raw chunk text")
	if got != "Based on the PDF: raw chunk text" {
		t.Errorf("unexpected document fallback: %q", got)
	}

	got = s.Synthesize(context.Background(), "query", ModeWeb, "raw snippets")
	if got != "Based on web search: raw snippets" {
		t.Errorf("unexpected web fallback: %q", got)
	}
}
