package lineedit

import "errors"

// Sentinel errors. Callers match them with errors.Is; the wrapping message
// added by call sites carries the operation-specific detail.
var (
	// ErrNotATerminal is returned when raw mode is requested on a file
	// descriptor that isn't a TTY.
	ErrNotATerminal = errors.New("lineedit: not a terminal")

	// ErrInterrupted is returned when the user presses Ctrl-C.
	ErrInterrupted = errors.New("lineedit: interrupted")

	// ErrEndOfFile is returned on Ctrl-D with an empty buffer, or when the
	// input stream is exhausted.
	ErrEndOfFile = errors.New("lineedit: end of file")

	// ErrIO is returned when a read or write on the terminal fails mid-edit.
	ErrIO = errors.New("lineedit: io error")

	// ErrHistoryIO is returned when a history file load or save fails.
	ErrHistoryIO = errors.New("lineedit: history io error")

	// ErrInvalidArgument is returned for out-of-range constructor or
	// setter arguments (e.g. a history max length below 1).
	ErrInvalidArgument = errors.New("lineedit: invalid argument")
)
