package service

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// credentialWatcherService reloads the credential store when the users file
// is edited out of band, so an admin can manage accounts with a text editor
// on the controller without restarting it.
type credentialWatcherService struct {
	watcher     outbound.FileWatcher
	authService inbound.AuthService
	logger      outbound.Logger
	usersFile   string

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

func NewCredentialWatcherService(
	watcher outbound.FileWatcher,
	authService inbound.AuthService,
	logger outbound.Logger,
	usersFile string,
) inbound.CredentialWatcherService {
	ctx, cancel := context.WithCancel(context.Background())

	return &credentialWatcherService{
		watcher:     watcher,
		authService: authService,
		logger:      logger,
		usersFile:   usersFile,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *credentialWatcherService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("credential watcher already running")
		return nil
	}

	if err := s.watcher.Watch(s.usersFile); err != nil {
		return err
	}

	go s.processEvents()

	s.running = true
	s.logger.Info("credential watcher started", "path", s.usersFile)
	return nil
}

func (s *credentialWatcherService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	if err := s.watcher.Stop(); err != nil {
		s.logger.Error("error stopping credential watcher", "error", err)
		return err
	}

	s.running = false
	s.logger.Info("credential watcher stopped")
	return nil
}

func (s *credentialWatcherService) processEvents() {
	for {
		select {
		case event, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.watcher.Errors():
			if !ok {
				return
			}
			s.logger.Error("credential watcher error", "error", err)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *credentialWatcherService) handleEvent(event outbound.FileChangeEvent) {
	if filepath.Clean(event.FilePath) != filepath.Clean(s.usersFile) {
		return
	}

	switch event.EventType {
	case "create", "modify":
		s.logger.Info("users file changed on disk, reloading credentials")
		if err := s.authService.ReloadUsers(); err != nil {
			s.logger.Error("failed to reload credentials", "error", err)
		}
	case "delete":
		s.logger.Warn("users file deleted, keeping cached credentials")
	}
}
