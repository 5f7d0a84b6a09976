// Package uid issues the random identifiers used in export file names,
// backup names and request tracing.
package uid

import "github.com/google/uuid"

// New returns a fresh identifier.
func New() string {
	return uuid.New().String()
}
