// Package id generates run identifiers.
package id

import (
	"github.com/google/uuid"
)

// Generate returns a new run ID. IDs are UUIDv7, so they sort by creation
// time; it falls back to a random UUID if the clock source fails.
func Generate() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return u.String()
}

// Short returns the last 8 characters of id, which carry the random bits
// of a UUIDv7 and are what the CLI prints.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
