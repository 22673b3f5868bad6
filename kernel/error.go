package kernel

import "aasvogel/kernel/errors"

// Error describes a kernel error. All kernel errors are constructed as
// values of this struct rather than via errors.New since the Go
// allocator may not be available yet when the error is created (e.g.
// during early boot, before goruntime.Init has run). Callers that need
// a package-level sentinel should store a *Error in a var block.
type Error struct {
	// Module is the subsystem that produced the error, e.g. "pmm" or
	// "vmm".
	Module string

	// Kind classifies the failure. Defaults to errors.Invalid when not
	// set explicitly.
	Kind errors.Kind

	// Message is a short human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// NewError constructs an *Error tagging it with a module name and kind.
func NewError(module string, kind errors.Kind, message string) *Error {
	return &Error{Module: module, Kind: kind, Message: message}
}
