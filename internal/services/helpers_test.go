package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lembar-pintar/studio/internal/repositories/memory"
)

func newMemoryRegistry(t *testing.T) *memory.Registry {
	t.Helper()
	seed, err := memory.DefaultSeed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	reg, err := memory.New(seed)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func sequenceIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("ID%03d", n)
	}
}

type recordingWriter struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (w *recordingWriter) PutObject(_ context.Context, bucket, object, _ string, data []byte) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	if w.objects == nil {
		w.objects = make(map[string][]byte)
	}
	w.objects[object] = data
	return "https://storage.googleapis.com/" + bucket + "/" + object, nil
}

type recordingPublisher struct {
	messages []DesignPublishedMessage
	err      error
}

func (p *recordingPublisher) PublishDesignPublished(_ context.Context, msg DesignPublishedMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.messages = append(p.messages, msg)
	return fmt.Sprintf("msg-%d", len(p.messages)), nil
}

type staticLinker struct{}

func (staticLinker) Link(designID string) (string, time.Time, error) {
	return "https://studio.test/share/" + designID + "?t=x", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), nil
}
