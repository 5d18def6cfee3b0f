package meshsplit

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package wraps exactly one of them.
var (
	// ErrConfiguration marks invalid split parameters, rejected before any work.
	ErrConfiguration = errors.New("meshsplit: invalid configuration")
	// ErrContractViolation marks broken internal invariants (programming errors).
	ErrContractViolation = errors.New("meshsplit: contract violation")
	// ErrResourceExhaustion marks a bucket too large for any index format.
	ErrResourceExhaustion = errors.New("meshsplit: resource exhaustion")
	// ErrInvalidSourceMesh marks malformed input mesh data.
	ErrInvalidSourceMesh = errors.New("meshsplit: invalid source mesh")
)

// Configuration errors.
var (
	ErrInvalidGridSize   = fmt.Errorf("%w: gridSize", ErrConfiguration)
	ErrNoSplitAxis       = fmt.Errorf("%w: splitAxes has no axis enabled", ErrConfiguration)
	ErrInvalidUVChannels = fmt.Errorf("%w: uvChannels", ErrConfiguration)
	ErrInvalidWorkers    = fmt.Errorf("%w: workers", ErrConfiguration)
)

// SplitError records the phase and grid cell a split failed in.
type SplitError struct {
	Op  string   // "validate", "bucketize", "cache", "build" or "assemble"
	Key *GridKey // cell being processed, nil when not cell-specific
	Err error
}

func (e *SplitError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, *e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SplitError) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SplitError
	if errors.As(err, &se) {
		return err
	}
	return &SplitError{Op: op, Err: err}
}

func keyError(op string, key GridKey, err error) error {
	return &SplitError{Op: op, Key: &key, Err: err}
}
