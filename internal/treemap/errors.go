package treemap

import "errors"

var (
	// ErrNoComparator is the panic value of NewFunc when no comparator is given.
	ErrNoComparator = errors.New("treemap: key comparator is nil")

	// ErrNilValue is returned by ContainsValue for a nil value.
	ErrNilValue = errors.New("treemap: nil value")

	// ErrIncomparable is returned by ContainsValue when values cannot be compared.
	ErrIncomparable = errors.New("treemap: values are not comparable")

	ErrRootNotBlack = errors.New("treemap: root is not black")
	ErrRedViolation = errors.New("treemap: red node has a red child")
	ErrBlackHeight  = errors.New("treemap: black height mismatch")
	ErrOrder        = errors.New("treemap: keys out of order")
	ErrParentLink   = errors.New("treemap: broken parent link")
)
