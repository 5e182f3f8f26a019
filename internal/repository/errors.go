// Package repository implements MySQL-backed stores for users, refresh
// tokens, sync changes and backups. These sentinel values let higher
// layers distinguish failure scenarios without inspecting driver
// errors: ErrEmailExists surfaces the unique-email constraint and
// ErrNotFound replaces sql.ErrNoRows at the package boundary.
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique email
// constraint on the users table.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")
