// Package storefakes provides an in-memory session.Storage for tests.
package storefakes

import (
	"sync"

	"github.com/masterfulhomes/dashwise-go/session"
)

// FakeStorage is a thread-safe in-memory implementation of session.Storage.
type FakeStorage struct {
	mu     sync.Mutex
	record *session.Record

	// WriteErr, ReadErr, and ClearErr are returned by the corresponding
	// operations when set, for failure-path tests.
	WriteErr error
	ReadErr  error
	ClearErr error

	// Writes and Clears count the calls made.
	Writes int
	Clears int
}

// NewFakeStorage creates an empty fake storage.
func NewFakeStorage() *FakeStorage {
	return &FakeStorage{}
}

// Write stores a copy of the record.
func (f *FakeStorage) Write(record *session.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes++
	if f.WriteErr != nil {
		return f.WriteErr
	}
	copied := *record
	if record.User != nil {
		user := *record.User
		copied.User = &user
	}
	f.record = &copied
	return nil
}

// Read returns a copy of the stored record, or nil when empty.
func (f *FakeStorage) Read() (*session.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if f.record == nil {
		return nil, nil
	}
	copied := *f.record
	if f.record.User != nil {
		user := *f.record.User
		copied.User = &user
	}
	return &copied, nil
}

// Clear removes the stored record.
func (f *FakeStorage) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clears++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.record = nil
	return nil
}

// Stored returns the current record without copying, for assertions.
func (f *FakeStorage) Stored() *session.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

var _ session.Storage = (*FakeStorage)(nil)
