package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// defaultUsers seed the credential store on first boot, before any admin
// had a chance to create accounts.
var defaultUsers = []struct {
	username string
	password string
	role     model.UserRole
}{
	{"admin", "admin123", model.RoleAdmin},
	{"user1", "password", model.RoleUser},
}

type authService struct {
	userRepo outbound.UserRepository
	hasher   outbound.PasswordHasher
	tokens   outbound.TokenSource
	clock    outbound.Clock
	logger   outbound.Logger

	mu       sync.Mutex
	users    []*model.User
	sessions []model.Session
	timeout  time.Duration
}

func NewAuthService(
	userRepo outbound.UserRepository,
	hasher outbound.PasswordHasher,
	tokens outbound.TokenSource,
	clock outbound.Clock,
	logger outbound.Logger,
	maxSessions int,
	timeoutSeconds int,
) inbound.AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		clock:    clock,
		logger:   logger,
		sessions: make([]model.Session, maxSessions),
		timeout:  time.Duration(timeoutSeconds) * time.Second,
	}
}

func (s *authService) Login(username, password string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadUsersLocked(); err != nil {
		return nil, err
	}

	// unknown user and bad password must be indistinguishable to the caller
	user := s.findUserLocked(username)
	if user == nil {
		s.logger.Debug("login failed, unknown user", "username", username)
		return nil, model.ErrInvalidCredentials
	}

	if s.hasher.Hash(password) != user.PasswordHash {
		s.logger.Debug("login failed, digest mismatch", "username", user.Username)
		return nil, model.ErrInvalidCredentials
	}

	for i := range s.sessions {
		if s.sessions[i].Active {
			continue
		}
		s.sessions[i] = model.Session{
			ID:         s.tokens.NewSessionID(),
			Username:   model.NormalizeUsername(user.Username),
			Role:       user.Role,
			LastActive: s.clock.Now(),
			Active:     true,
		}
		session := s.sessions[i]
		s.logger.Info("session created", "username", session.Username, "role", session.Role)
		return &session, nil
	}

	s.logger.Warn("login rejected, session table full", "username", user.Username)
	return nil, model.ErrSessionTableFull
}

func (s *authService) Validate(sessionID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if !s.sessions[i].Active || s.sessions[i].ID != sessionID {
			continue
		}
		now := s.clock.Now()
		if now.Sub(s.sessions[i].LastActive) > s.timeout {
			s.sessions[i].Active = false
			s.logger.Info("session expired", "username", s.sessions[i].Username)
			return nil, model.ErrSessionInvalid
		}
		s.sessions[i].LastActive = now
		session := s.sessions[i]
		return &session, nil
	}

	return nil, model.ErrSessionInvalid
}

func (s *authService) Logout(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].Active && s.sessions[i].ID == sessionID {
			s.sessions[i].Active = false
			s.logger.Info("session closed", "username", s.sessions[i].Username)
			return true
		}
	}
	return false
}

func (s *authService) CreateUser(username, password string, role model.UserRole) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadUsersLocked(); err != nil {
		return nil, err
	}

	if s.findUserLocked(username) != nil {
		return nil, model.ErrUserExists
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     model.NormalizeUsername(username),
		PasswordHash: s.hasher.Hash(password),
		Role:         role,
	}
	s.users = append(s.users, user)

	if err := s.userRepo.Save(s.users); err != nil {
		s.users = s.users[:len(s.users)-1]
		return nil, err
	}

	s.logger.Info("user created", "username", user.Username, "role", user.Role)
	return user, nil
}

func (s *authService) DeleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadUsersLocked(); err != nil {
		return err
	}

	user := s.findUserLocked(username)
	if user == nil {
		return model.ErrUserNotFound
	}

	if user.Role == model.RoleAdmin && s.countAdminsLocked() == 1 {
		return model.ErrLastAdmin
	}

	users := make([]*model.User, 0, len(s.users)-1)
	for _, u := range s.users {
		if u != user {
			users = append(users, u)
		}
	}

	if err := s.userRepo.Save(users); err != nil {
		return err
	}
	s.users = users

	// the deleted user must not keep operating through a live session
	folded := model.NormalizeUsername(username)
	for i := range s.sessions {
		if s.sessions[i].Active && s.sessions[i].Username == folded {
			s.sessions[i].Active = false
		}
	}

	s.logger.Info("user deleted", "username", folded)
	return nil
}

func (s *authService) ChangePassword(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadUsersLocked(); err != nil {
		return err
	}

	user := s.findUserLocked(username)
	if user == nil {
		return model.ErrUserNotFound
	}

	previous := user.PasswordHash
	user.PasswordHash = s.hasher.Hash(password)

	if err := s.userRepo.Save(s.users); err != nil {
		user.PasswordHash = previous
		return err
	}

	s.logger.Info("password changed", "username", user.Username)
	return nil
}

func (s *authService) ListUsers() ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadUsersLocked(); err != nil {
		return nil, err
	}

	users := make([]*model.User, len(s.users))
	copy(users, s.users)
	return users, nil
}

func (s *authService) ReloadUsers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = nil
	return s.loadUsersLocked()
}

// loadUsersLocked fills the in-memory credential cache, seeding the store
// with the default accounts on first boot.
func (s *authService) loadUsersLocked() error {
	if s.users != nil {
		return nil
	}

	users, err := s.userRepo.Load()
	if err == nil {
		s.users = users
		return nil
	}
	if err != model.ErrUsersFileNotFound {
		return err
	}

	s.logger.Info("users file missing, creating default users")
	users = make([]*model.User, 0, len(defaultUsers))
	for _, d := range defaultUsers {
		users = append(users, &model.User{
			ID:           uuid.New().String(),
			Username:     d.username,
			PasswordHash: s.hasher.Hash(d.password),
			Role:         d.role,
		})
	}

	if err := s.userRepo.Save(users); err != nil {
		return err
	}
	s.users = users
	return nil
}

func (s *authService) findUserLocked(username string) *model.User {
	folded := model.NormalizeUsername(username)
	for _, u := range s.users {
		if model.NormalizeUsername(u.Username) == folded {
			return u
		}
	}
	return nil
}

func (s *authService) countAdminsLocked() int {
	count := 0
	for _, u := range s.users {
		if u.Role == model.RoleAdmin {
			count++
		}
	}
	return count
}
