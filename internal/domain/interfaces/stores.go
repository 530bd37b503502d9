package interfaces

import domaintypes "github.com/tunermason/SC/internal/domain/types"

// DatabaseStore persists the settings, contacts and call history.
type DatabaseStore interface {
	Exists() bool
	LoadDatabase(passphrase string) (domaintypes.Database, error)
	SaveDatabase(passphrase string, db domaintypes.Database) error
}

// EventRecorder appends finished calls to the history.
type EventRecorder interface {
	RecordEvent(ev domaintypes.Event) error
}
