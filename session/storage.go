package session

// Storage persists a session Record between client runs. Implementations
// must make Write atomic with respect to Read: a reader sees either the
// previous record or the new one, never a mix.
type Storage interface {
	// Write replaces the stored record.
	Write(record *Record) error
	// Read returns the stored record, or nil when nothing is stored.
	Read() (*Record, error)
	// Clear removes the stored record. Clearing an empty store is a no-op.
	Clear() error
}
