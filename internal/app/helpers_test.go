package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"teachassist/internal/ai"
	"teachassist/internal/docrender"
	"teachassist/internal/storage"
)

type stubRetriever struct {
	snippets []ai.Snippet
	err      error
}

func (r stubRetriever) Retrieve(context.Context, string, int) ([]ai.Snippet, error) {
	return r.snippets, r.err
}

// scriptedGenerator answers by the first matching prompt prefix and records
// every request.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  map[string]string
	fallback string
	err      error
	requests []ai.GenerateRequest
}

func (g *scriptedGenerator) Generate(_ context.Context, req ai.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return "", g.err
	}
	for marker, reply := range g.replies {
		if strings.Contains(req.Prompt, marker) {
			return reply, nil
		}
	}
	return g.fallback, nil
}

func (g *scriptedGenerator) calls() []ai.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ai.GenerateRequest(nil), g.requests...)
}

type stubRenderer struct {
	docs []docrender.Document
}

func (r *stubRenderer) Render(doc docrender.Document) ([]byte, error) {
	r.docs = append(r.docs, doc)
	return []byte("%PDF-1.3 " + doc.Heading), nil
}

type countingReindexer struct {
	mu      sync.Mutex
	reasons []string
}

func (r *countingReindexer) RequestReindex(_ context.Context, reason string) error {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	return nil
}

func (r *countingReindexer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

type failingReindexer struct {
	countingReindexer
}

func (r *failingReindexer) RequestReindex(ctx context.Context, reason string) error {
	_ = r.countingReindexer.RequestReindex(ctx, reason)
	return errors.New("ingestion job already running")
}

// brokenPrefixStore fails every DeletePrefix call.
type brokenPrefixStore struct {
	storage.Store
}

func (brokenPrefixStore) DeletePrefix(context.Context, string) (int, error) {
	return 0, errors.New("s3 unavailable")
}
