package service

import (
	"sync"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// pumpService owns the relay line and the running/stopped state machine.
// Invariant while running: 0 < durationSec <= maxSec and
// endMs == startMs + durationSec*1000.
type pumpService struct {
	stateRepo outbound.PumpStateRepository
	relay     outbound.RelayDriver
	notifier  outbound.StatusNotifier
	clock     outbound.Clock
	logger    outbound.Logger

	defaultSec     int64
	maxSec         int64
	inputInMinutes bool

	mu          sync.Mutex
	running     bool
	startMs     int64
	durationSec int64
	endMs       int64
}

func NewPumpService(
	stateRepo outbound.PumpStateRepository,
	relay outbound.RelayDriver,
	notifier outbound.StatusNotifier,
	clock outbound.Clock,
	logger outbound.Logger,
	defaultDurationSeconds int64,
	maxDurationSeconds int64,
	inputInMinutes bool,
) inbound.PumpService {
	return &pumpService{
		stateRepo:      stateRepo,
		relay:          relay,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
		defaultSec:     defaultDurationSeconds,
		maxSec:         maxDurationSeconds,
		inputInMinutes: inputInMinutes,
	}
}

func (s *pumpService) Start(durationInput int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return model.ErrPumpAlreadyRunning
	}

	duration := durationInput
	if s.inputInMinutes {
		duration *= 60
	}
	if duration == 0 {
		duration = s.defaultSec
	}
	if duration > s.maxSec {
		return model.ErrDurationTooLarge
	}

	now := s.clock.Now().UnixMilli()
	s.running = true
	s.startMs = now
	s.durationSec = duration
	s.endMs = now + duration*1000

	// persist before the relay goes active so a crash in between leaves
	// the stored state ahead of the output, never behind it
	s.persistLocked()
	s.driveRelayLocked(true)

	s.logger.Info("pump started", "duration_seconds", duration)
	s.notifier.Broadcast(true, s.remainingLocked())
	return nil
}

func (s *pumpService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked("pump stopped")
	return nil
}

// Tick performs the deadline check. The control loop calls it at a bounded
// interval; expiry is not driven by any network input.
func (s *pumpService) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && s.clock.Now().UnixMilli() > s.endMs {
		s.stopLocked("pump timer expired")
	}
}

// Restore loads the persisted triple after a restart. A run is resumed only
// when it is still inside both its own window and the failsafe ceiling;
// anything else is stale and the relay stays off. The stored state is not
// rewritten here.
func (s *pumpService) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.driveRelayLocked(false)

	state, err := s.stateRepo.Load()
	if err != nil {
		if err == model.ErrStateNotFound {
			return nil
		}
		s.logger.Error("failed to load pump state", "error", err)
		return err
	}

	if !state.Running {
		return nil
	}

	elapsedSec := (s.clock.Now().UnixMilli() - state.StartMs) / 1000
	if elapsedSec < state.DurationSec && elapsedSec < s.maxSec {
		s.running = true
		s.startMs = state.StartMs
		s.durationSec = state.DurationSec
		s.endMs = state.StartMs + state.DurationSec*1000
		s.driveRelayLocked(true)
		s.logger.Info("pump run resumed after restart",
			"elapsed_seconds", elapsedSec,
			"remaining_seconds", s.remainingLocked())
		return nil
	}

	s.logger.Warn("stale pump run discarded after restart",
		"elapsed_seconds", elapsedSec,
		"duration_seconds", state.DurationSec)
	return nil
}

func (s *pumpService) Status() model.PumpStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.PumpStatus{
		Running:          s.running,
		RemainingSeconds: s.remainingLocked(),
	}
}

// stopLocked is shared by Stop and timer expiry. Idempotent: stopping an
// already stopped pump rewrites the same zeroed state.
func (s *pumpService) stopLocked(reason string) {
	// inactive is the fail-safe direction, so the relay drops first
	s.driveRelayLocked(false)
	s.running = false
	s.startMs = 0
	s.durationSec = 0
	s.endMs = 0
	s.persistLocked()

	s.logger.Info(reason)
	s.notifier.Broadcast(false, 0)
}

func (s *pumpService) remainingLocked() int64 {
	if !s.running {
		return 0
	}
	remaining := (s.endMs - s.clock.Now().UnixMilli()) / 1000
	if remaining < 0 {
		return 0
	}
	return remaining
}

// persistLocked mirrors the triple to durable storage. A write failure is a
// degraded mode: the pump keeps operating in memory, but crash recovery is
// void until the next successful persist.
func (s *pumpService) persistLocked() {
	state := &model.PumpState{
		Running:     s.running,
		StartMs:     s.startMs,
		DurationSec: s.durationSec,
	}
	if err := s.stateRepo.Save(state); err != nil {
		s.logger.Error("failed to persist pump state", "error", err)
	}
}

func (s *pumpService) driveRelayLocked(active bool) {
	if err := s.relay.Set(active); err != nil {
		s.logger.Error("failed to drive relay", "active", active, "error", err)
	}
}
