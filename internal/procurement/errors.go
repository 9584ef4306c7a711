package procurement

import "errors"

// ErrInvalidQuantity is returned when the requested quantity is not a positive integer.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// ErrProblemTooLarge is returned when the purchase units and quantity exceed the
// planner's solver cell limit.
var ErrProblemTooLarge = errors.New("problem exceeds solver size limit")
