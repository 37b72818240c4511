package model

import "strings"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User is a stored credential record. PasswordHash is the lowercase hex
// SHA-256 digest of the raw password; the on-disk field is named "password"
// for compatibility with existing user files.
type User struct {
	ID           string   `json:"id,omitempty"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password"`
	Role         UserRole `json:"role"`
}

// NormalizeUsername case-folds a username. Usernames are unique and compared
// case-insensitively everywhere.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

type UserResponse struct {
	ID       string   `json:"id,omitempty"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}
