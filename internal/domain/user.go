package domain

import "time"

// User is a registered account. The username is the immutable identifier;
// the password is only ever held as a bcrypt hash.
type User struct {
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
