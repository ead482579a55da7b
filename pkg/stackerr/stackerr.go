// Package stackerr defines the typed error taxonomy surfaced by the
// image and stackpoint engines to the command facade.
package stackerr

import "fmt"

// Kind identifies one entry of the error taxonomy. The string value is
// stable and user-visible.
type Kind string

const (
	KindDuplicateImage      Kind = "DuplicateImage"
	KindDuplicatePoint      Kind = "DuplicatePoint"
	KindDuplicateInstance   Kind = "DuplicateInstance"
	KindUnknownImage        Kind = "UnknownImage"
	KindUnknownPoint        Kind = "UnknownPoint"
	KindUnknownInstance     Kind = "UnknownInstance"
	KindUnknownPointInst    Kind = "UnknownPointInstance"
	KindHasChildren         Kind = "HasChildren"
	KindHasInstances        Kind = "HasInstances"
	KindChildrenMounted     Kind = "ChildrenMounted"
	KindInstancesMounted    Kind = "InstancesMounted"
	KindInstanceMounted     Kind = "InstanceMounted"
	KindEditingActive       Kind = "EditingActive"
	KindReservedInstance    Kind = "ReservedInstance"
	KindLayoutMismatch      Kind = "LayoutMismatch"
	KindDepthExceeded       Kind = "DepthExceeded"
	KindCurrentInstance     Kind = "CurrentInstance"
	KindMountOperationFail  Kind = "MountOperationFailed"
	KindCorruptManifest     Kind = "CorruptManifest"
	KindUnsupportedPlatform Kind = "UnsupportedPlatform"
)

// Error is the concrete error type carrying a Kind and a human-readable
// message. All core errors returned by the engines are of this type, so
// callers can recover the Kind with errors.As.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers
// can write errors.Is(err, stackerr.New(KindUnknownImage, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping an underlying
// error, preserving it for errors.Unwrap/errors.As.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// OfKind reports whether err is a *Error of the given kind.
func OfKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if se, ok := err.(*Error); ok {
			e = se
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
