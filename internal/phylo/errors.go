package phylo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedTree is returned when the tree structure breaks an invariant:
	// a node reached twice, a child index out of range, a leaf with children,
	// or a traversed node without a usable branch length.
	ErrMalformedTree = errors.New("phylo: malformed tree")

	// ErrInvalidParameter is returned for a negative or non-finite cutoff.
	ErrInvalidParameter = errors.New("phylo: invalid parameter")

	// ErrNodeNotFound is returned when a node id is not part of the tree, or
	// is not the kind of node the operation needs.
	ErrNodeNotFound = errors.New("phylo: node not found")

	// ErrInvalidLabel is returned when a tip label does not match the
	// configured LabelFormat.
	ErrInvalidLabel = errors.New("phylo: invalid tip label")
)

// ValidateCutoff rejects cutoffs that are negative, NaN or infinite.
func ValidateCutoff(cutoff float64) error {
	if math.IsNaN(cutoff) || math.IsInf(cutoff, 0) {
		return fmt.Errorf("%w: cutoff %v is not finite", ErrInvalidParameter, cutoff)
	}
	if cutoff < 0 {
		return fmt.Errorf("%w: cutoff %v is negative", ErrInvalidParameter, cutoff)
	}
	return nil
}
