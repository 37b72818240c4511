package outbound

import (
	"time"

	"github.com/avigneron/pumphouse/domain/model"
)

// UserRepository persists the credential records. The core reads the whole
// list; administrative operations write it back.
type UserRepository interface {
	// Load returns every stored user record, or model.ErrUsersFileNotFound
	// when the backing file does not exist yet
	Load() ([]*model.User, error)

	// Save replaces the stored record list
	Save(users []*model.User) error

	// Exists reports whether the backing file is present
	Exists() bool
}

// PumpStateRepository persists the pump triple across restarts.
type PumpStateRepository interface {
	// Load returns the persisted triple, or model.ErrStateNotFound when no
	// state has ever been written
	Load() (*model.PumpState, error)

	// Save durably replaces the persisted triple
	Save(state *model.PumpState) error
}

// Clock is the monotonically non-decreasing time source used by the session
// table and the pump state machine.
type Clock interface {
	Now() time.Time
}

// RelayDriver is the single digital output the pump state machine owns.
// No other component may drive it.
type RelayDriver interface {
	// Set drives the relay line active or inactive
	Set(active bool) error

	// Active reports the last state the driver was set to
	Active() bool
}

// StatusNotifier fans pump state changes out to connected observers.
// Delivery is fire and forget: a slow or disconnected observer must never
// block or fail the transition that triggered the broadcast.
type StatusNotifier interface {
	Broadcast(running bool, remainingSeconds int64)
}

// PasswordHasher computes the stored credential digest. The digest must be
// deterministic and stable across restarts; persisted comparisons depend
// on it.
type PasswordHasher interface {
	Hash(password string) string
}

// TokenSource generates opaque session identifiers.
type TokenSource interface {
	NewSessionID() string
}

// MachineIDService identifies the controller hardware.
type MachineIDService interface {
	GetMachineID() (string, error)
}

// FileChangeEvent represents a file system change event.
type FileChangeEvent struct {
	FilePath  string `json:"filePath"`
	EventType string `json:"eventType"` // "create", "modify", "delete"
}

// FileWatcher defines operations for monitoring file system changes.
type FileWatcher interface {
	// Watch starts monitoring a file for changes
	Watch(path string) error

	// Stop stops watching all files and releases resources
	Stop() error

	// Events returns a channel for receiving file change events
	Events() <-chan FileChangeEvent

	// Errors returns a channel for receiving watcher errors
	Errors() <-chan error
}
