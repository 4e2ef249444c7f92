package facematch

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch matches any *DimensionMismatchError via errors.Is.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDuplicateIdentity matches any *DuplicateIdentityError via errors.Is.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrInvalidThreshold is returned for negative or NaN thresholds.
	ErrInvalidThreshold = errors.New("distance threshold must be a non-negative number")
)

// DimensionMismatchError reports an embedding whose length disagrees with the
// dimensionality established by the reference set.
// Identity is empty when the offending embedding is a query.
type DimensionMismatchError struct {
	Identity string
	Index    int
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	if e.Actual == 0 && e.Expected == 0 {
		return fmt.Sprintf("reference %q (entry %d) has an empty embedding", e.Identity, e.Index)
	}
	if e.Identity == "" {
		return fmt.Sprintf("query embedding has %d dimensions, reference set expects %d", e.Actual, e.Expected)
	}
	return fmt.Sprintf("reference %q (entry %d) has %d dimensions, expected %d", e.Identity, e.Index, e.Actual, e.Expected)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// DuplicateIdentityError reports two roster entries sharing an identity label.
type DuplicateIdentityError struct {
	Identity       string
	FirstIndex     int
	DuplicateIndex int
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("identity %q appears at entries %d and %d", e.Identity, e.FirstIndex, e.DuplicateIndex)
}

func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
