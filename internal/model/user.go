package model

import "time"

// User represents an application user record as stored in the
// `users` table. The json tags are omitted because these structs
// are used internally by the repository layer; wire shapes are
// defined as separate response types below.
//
// Fields:
//  ID           – primary key identifier (uuid).
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – optional display name (empty when unset).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// UserResponse is the wire shape of a user. The password hash never
// leaves the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Response maps a stored user to its wire shape.
func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
