package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avigneron/pumphouse/domain/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Load() ([]*model.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) Save(users []*model.User) error {
	args := m.Called(users)
	return args.Error(0)
}

func (m *MockUserRepository) Exists() bool {
	args := m.Called()
	return args.Bool(0)
}

// stubHasher keeps digests readable in assertions while staying
// deterministic like the real one.
type stubHasher struct{}

func (stubHasher) Hash(password string) string {
	return "digest:" + password
}

// stubTokens hands out sequential ids so tests can tell sessions apart.
type stubTokens struct {
	n int
}

func (t *stubTokens) NewSessionID() string {
	t.n++
	return fmt.Sprintf("tokentokentoken%d", t.n)
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time {
	return c.now
}

func (c *stubClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type nopLogger struct{}

func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}

func testUsers() []*model.User {
	return []*model.User{
		{ID: "id-1", Username: "admin", PasswordHash: "digest:admin123", Role: model.RoleAdmin},
		{ID: "id-2", Username: "user1", PasswordHash: "digest:password", Role: model.RoleUser},
	}
}

func setupAuthService(maxSessions, timeoutSeconds int) (*authService, *MockUserRepository, *stubClock) {
	repo := &MockUserRepository{}
	clk := &stubClock{now: time.Unix(1_700_000_000, 0)}

	svc := NewAuthService(repo, stubHasher{}, &stubTokens{}, clk, nopLogger{}, maxSessions, timeoutSeconds).(*authService)
	return svc, repo, clk
}

func TestLogin_Success(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("admin", "admin123")

	require.NoError(t, err)
	assert.Len(t, session.ID, 16)
	assert.Equal(t, "admin", session.Username)
	assert.Equal(t, model.RoleAdmin, session.Role)
	assert.True(t, session.Active)
}

func TestLogin_CaseInsensitiveUsername(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("ADMIN", "admin123")

	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
}

func TestLogin_FailureIsUniform(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	// wrong password and unknown user must be indistinguishable
	_, errBadPassword := svc.Login("admin", "wrong")
	_, errUnknownUser := svc.Login("nobody", "whatever")

	assert.ErrorIs(t, errBadPassword, model.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownUser, model.ErrInvalidCredentials)
	assert.Equal(t, errBadPassword, errUnknownUser)
}

func TestLogin_TableFull(t *testing.T) {
	svc, repo, _ := setupAuthService(2, 180)
	repo.On("Load").Return(testUsers(), nil)

	first, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	second, err := svc.Login("user1", "password")
	require.NoError(t, err)

	_, err = svc.Login("admin", "admin123")
	assert.ErrorIs(t, err, model.ErrSessionTableFull)

	// the rejection must not disturb existing sessions
	_, err = svc.Validate(first.ID)
	assert.NoError(t, err)
	_, err = svc.Validate(second.ID)
	assert.NoError(t, err)
}

func TestLogin_TokensAreUnique(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		session, err := svc.Login("admin", "admin123")
		require.NoError(t, err)
		assert.False(t, seen[session.ID])
		seen[session.ID] = true
	}
}

func TestValidate_RefreshesActivity(t *testing.T) {
	svc, repo, clk := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	// each use inside the window pushes the deadline forward
	for i := 0; i < 5; i++ {
		clk.advance(150 * time.Second)
		refreshed, err := svc.Validate(session.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin", refreshed.Username)
	}
}

func TestValidate_Expired(t *testing.T) {
	svc, repo, clk := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	clk.advance(181 * time.Second)

	_, err = svc.Validate(session.ID)
	assert.ErrorIs(t, err, model.ErrSessionInvalid)

	// the slot is gone for good, not just once
	_, err = svc.Validate(session.ID)
	assert.ErrorIs(t, err, model.ErrSessionInvalid)
}

func TestValidate_ExpiredSlotIsReusable(t *testing.T) {
	svc, repo, clk := setupAuthService(1, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	clk.advance(200 * time.Second)
	_, err = svc.Validate(session.ID)
	require.ErrorIs(t, err, model.ErrSessionInvalid)

	// capacity one: a new login only works if the expired slot was freed
	_, err = svc.Login("admin", "admin123")
	assert.NoError(t, err)
}

func TestValidate_UnknownToken(t *testing.T) {
	svc, _, _ := setupAuthService(10, 180)

	_, err := svc.Validate("nosuchtoken")
	assert.ErrorIs(t, err, model.ErrSessionInvalid)
}

func TestLogout(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	session, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	assert.True(t, svc.Logout(session.ID))
	assert.False(t, svc.Logout(session.ID))

	_, err = svc.Validate(session.ID)
	assert.ErrorIs(t, err, model.ErrSessionInvalid)
}

func TestLogin_BootstrapsDefaultUsers(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(nil, model.ErrUsersFileNotFound)
	repo.On("Save", mock.Anything).Return(nil)

	session, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, session.Role)

	_, err = svc.Login("Admin", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	repo.AssertCalled(t, "Save", mock.Anything)
}

func TestCreateUser_DuplicateIsCaseFolded(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	_, err := svc.CreateUser("ADMIN", "whatever", model.RoleUser)
	assert.ErrorIs(t, err, model.ErrUserExists)
}

func TestCreateUser_Success(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)
	repo.On("Save", mock.Anything).Return(nil)

	user, err := svc.CreateUser("Alice", "secret", model.RoleUser)

	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "digest:secret", user.PasswordHash)
	assert.NotEmpty(t, user.ID)

	session, err := svc.Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, session.Role)
}

func TestDeleteUser_LastAdminRejected(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	err := svc.DeleteUser("admin")
	assert.ErrorIs(t, err, model.ErrLastAdmin)
}

func TestDeleteUser_InvalidatesSessions(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)
	repo.On("Save", mock.Anything).Return(nil)

	session, err := svc.Login("user1", "password")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser("user1"))

	_, err = svc.Validate(session.ID)
	assert.ErrorIs(t, err, model.ErrSessionInvalid)

	_, err = svc.Login("user1", "password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)
	repo.On("Save", mock.Anything).Return(nil)

	require.NoError(t, svc.ChangePassword("user1", "newpass"))

	_, err := svc.Login("user1", "password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login("user1", "newpass")
	assert.NoError(t, err)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil)

	err := svc.ChangePassword("nobody", "newpass")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestReloadUsers_PicksUpChanges(t *testing.T) {
	svc, repo, _ := setupAuthService(10, 180)
	repo.On("Load").Return(testUsers(), nil).Once()

	_, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	updated := []*model.User{
		{ID: "id-1", Username: "admin", PasswordHash: "digest:rotated", Role: model.RoleAdmin},
	}
	repo.On("Load").Return(updated, nil).Once()

	require.NoError(t, svc.ReloadUsers())

	_, err = svc.Login("admin", "admin123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.Login("admin", "rotated")
	assert.NoError(t, err)
}
