package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Password length bounds in bytes. bcrypt cannot hash more than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// CheckPassword enforces the password length bounds.
func CheckPassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// User models an account that can authenticate against the API.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the global admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidUserRole reports whether role is one of the global account roles.
func ValidUserRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Identity is the authenticated caller resolved from a token. It only carries
// what the token asserts; the stored user record may have changed since issue.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity asserts the global admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
