package leves

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/topo-leves/validation"
)

var (
	// ErrUnauthorized: the policy check failed. Retrying with different
	// data cannot help, only a different actor can.
	ErrUnauthorized = errors.New("non autorisé")

	// ErrNotFound: no such record, or an ownership-conditional write
	// matched zero rows. Surfaced to users with the same message as
	// ErrUnauthorized so record existence cannot be probed.
	ErrNotFound = errors.New("levé non trouvé")

	// ErrStorageUnavailable wraps connectivity or query failures at the
	// storage boundary. Reads degrade to empty results plus this error.
	ErrStorageUnavailable = errors.New("base de données inaccessible")
)

// ValidationError carries every violated field rule of one write attempt.
// No write is performed when it is returned.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "validation: " + strings.Join(e.Violations.Fields(), ", ")
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
