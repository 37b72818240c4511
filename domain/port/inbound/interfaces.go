package inbound

import "github.com/avigneron/pumphouse/domain/model"

// AuthService gates every control operation behind the session table.
type AuthService interface {
	// Login verifies credentials and mints a session in the first free
	// table slot. Fails with model.ErrInvalidCredentials on any credential
	// problem and model.ErrSessionTableFull when every slot is active.
	Login(username, password string) (*model.Session, error)

	// Validate checks a session token and refreshes its activity
	// timestamp. Unknown and idle-expired tokens both fail with
	// model.ErrSessionInvalid.
	Validate(sessionID string) (*model.Session, error)

	// Logout marks the matching active session inactive and reports
	// whether a match was found.
	Logout(sessionID string) bool

	// User management, admin-gated at the request layer.
	CreateUser(username, password string, role model.UserRole) (*model.User, error)
	DeleteUser(username string) error
	ChangePassword(username, password string) error
	ListUsers() ([]*model.User, error)

	// ReloadUsers discards the in-memory credential cache so the next
	// operation rereads the backing store.
	ReloadUsers() error
}

// PumpService owns the relay output and the running/stopped state machine.
type PumpService interface {
	// Start begins a timed run. A zero duration selects the configured
	// default; the input is scaled from minutes when the controller is
	// configured that way. Fails with model.ErrPumpAlreadyRunning or
	// model.ErrDurationTooLarge, leaving state unchanged.
	Start(durationInput int64) error

	// Stop halts the pump. Stopping an already stopped pump is a no-op
	// success.
	Stop() error

	// Tick performs the deadline check; the surrounding control loop must
	// call it at a bounded interval.
	Tick()

	// Restore loads the persisted triple at boot, re-asserting the relay
	// when the run is still legitimate and forcing a stop otherwise.
	Restore() error

	// Status reports the externally visible state.
	Status() model.PumpStatus
}

// CredentialWatcherService reloads the credential store when the users file
// is edited out of band.
type CredentialWatcherService interface {
	Start() error
	Stop() error
}
