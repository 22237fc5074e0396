package ml

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when a scaler or forest is used before Fit.
var ErrNotFitted = errors.New("model not fitted")

// SchemaError reports a pollutant column missing from the source table.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q missing from dataset", e.Column)
}

// InsufficientDataError reports a dataset too small to leave a non-empty
// train subset after the split.
type InsufficientDataError struct {
	Rows int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("dataset has %d rows, not enough to split", e.Rows)
}

// EmptyInputError reports empty or mismatched actual/predicted slices passed
// to evaluation.
type EmptyInputError struct {
	Actual    int
	Predicted int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("evaluation inputs invalid: %d actual vs %d predicted", e.Actual, e.Predicted)
}
