// Package uid generates the identifiers used for entities, live
// connections and requests.
package uid

import "github.com/google/uuid"

// New returns a time-ordered (version 7) UUID string.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether id parses as a UUID of any version.
func Valid(id string) bool {
	return uuid.Validate(id) == nil
}
