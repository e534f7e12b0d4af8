package models

// Identity is the minimal public record of the signed-in user
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserRecord is an entry of the local user registry.
// Password is kept in plaintext to stay compatible with existing stored data.
type UserRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity returns the public part of the record
func (u UserRecord) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UserLogin contains data needed for user login
type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DirectoryUser is a user as listed by the remote directory
type DirectoryUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
