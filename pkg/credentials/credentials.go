// Package credentials keeps service account credentials across test runs so
// accounts created on a cluster can be logged in with or cleaned up later.
package credentials

import (
	"errors"

	"github.com/dcos/dcos-test-utils/pkg/iam"
)

var ErrNotFound = errors.New("credentials not found")

// Store holds credentials by service account uid.
type Store interface {
	Save(creds iam.ServiceAccountCredentials) error
	// Load returns ErrNotFound for unknown accounts.
	Load(uid string) (*iam.ServiceAccountCredentials, error)
	// Delete is a no-op for unknown accounts.
	Delete(uid string) error
	Exists(uid string) bool
	List() ([]string, error)
}
