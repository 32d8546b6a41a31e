package mfgnet

import "fmt"

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables, and can be compared directly or
// through errors.Cause.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned.
var (
	ErrRegisterNilReturn = Error{"Function return is nil"}
	ErrUnknownName       = Error{"Name has not been registered"}
	ErrEmptyDataset      = Error{"Dataset has no samples"}
	ErrEmptySplit        = Error{"Split would leave the training or validation set empty"}
	ErrNotAssembled      = Error{"Network has not been assembled"}
	ErrNotTrained        = Error{"Network has not been trained"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
type NilArgError struct{ string }

func (err NilArgError) Error() string {
	return err.string + " is nil"
}

// SizeMismatchError is returned when the number of values given does not match the number
// expected, for example when the flattened convolutional output does not match the input
// size declared to the recurrent stage.
type SizeMismatchError struct {
	Expected, Got int
	What          string
}

func (err SizeMismatchError) Error() string {
	return fmt.Sprintf("Size mismatch for %s: expected %d, got %d", err.What, err.Expected, err.Got)
}

// ShapeError is returned when a convolution or pooling stage would produce a non-positive
// spatial dimension.
type ShapeError struct {
	// Layer is the zero-based index of the convolutional layer
	Layer int
	// Stage is either "convolution" or "pooling"
	Stage string
	Size  Pair
}

func (err *ShapeError) Error() string {
	return fmt.Sprintf("Layer %d %s produces non-positive output size %v", err.Layer, err.Stage, err.Size)
}
