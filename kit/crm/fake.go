package crm

import (
	"context"
	"sync"
)

// FakeClient records calls in memory. Used when no CRM is configured and in
// tests.
type FakeClient struct {
	mu      sync.Mutex
	Updates []FakeUpdate
	Notes   []FakeNote
	Err     error
}

type FakeUpdate struct {
	Module   string
	RecordID string
	Fields   map[string]any
}

type FakeNote struct {
	Module   string
	RecordID string
	Title    string
	Body     string
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) UpdateRecord(ctx context.Context, module, recordID string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Updates = append(f.Updates, FakeUpdate{Module: module, RecordID: recordID, Fields: fields})
	return nil
}

func (f *FakeClient) AddNote(ctx context.Context, module, recordID, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Notes = append(f.Notes, FakeNote{Module: module, RecordID: recordID, Title: title, Body: body})
	return nil
}

func (f *FakeClient) UpdateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Updates)
}

func (f *FakeClient) NoteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Notes)
}
