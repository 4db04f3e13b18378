package cmis

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these,
// so bindings can map it to a wire status with errors.Is.
var (
	// ErrInvalidArgument indicates malformed input: missing required
	// properties, unknown property ids, duplicate query aliases or columns
	// that cannot be resolved.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNameConstraintViolation indicates a sibling name collision.
	ErrNameConstraintViolation = errors.New("name constraint violation")

	// ErrConstraint indicates an operation that would violate a repository
	// constraint, e.g. deleting a non-empty folder.
	ErrConstraint = errors.New("constraint violation")

	// ErrObjectNotFound indicates an unknown object id, path or type id.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNotSupported indicates an operation this repository does not offer.
	ErrNotSupported = errors.New("not supported")

	// ErrUpdateConflict indicates a stale change token.
	ErrUpdateConflict = errors.New("update conflict")

	// ErrPermissionDenied indicates the principal lacks the required permission.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrVersioning indicates an operation that is invalid for the version
	// state of a document, e.g. checking in a document that is not checked out.
	ErrVersioning = errors.New("versioning violation")

	// ErrContentAlreadyExists indicates an attempt to set content without
	// overwrite on a document that already has content.
	ErrContentAlreadyExists = errors.New("content already exists")
)

var kinds = []error{
	ErrInvalidArgument,
	ErrNameConstraintViolation,
	ErrConstraint,
	ErrObjectNotFound,
	ErrNotSupported,
	ErrUpdateConflict,
	ErrPermissionDenied,
	ErrVersioning,
	ErrContentAlreadyExists,
}

// Kind returns the error kind wrapped by err, or nil if err carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Errorf wraps kind with a formatted detail message.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// ObjectError represents an error related to an operation on one object
type ObjectError struct {
	ObjectID string
	Op       string
	Err      error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("object operation %s failed for object %s: %v", e.Op, e.ObjectID, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// RepositoryError represents an error related to a repository lookup or
// repository-wide operation such as a query.
type RepositoryError struct {
	RepositoryID string
	Op           string
	Err          error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository operation %s failed for repository %s: %v", e.Op, e.RepositoryID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
