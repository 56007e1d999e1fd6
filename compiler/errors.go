package compiler

import "errors"

// ErrNotAssignable is returned by Compile's Assign path when the
// top-level program is not a single Identifier/Member statement.
var ErrNotAssignable = errors.New("compiler: expression is not assignable")

// ErrNotAFunction is wrapped with the offending name when a call target
// does not resolve to a callable value. The digest wrapper around
// watchFn/listenerFn catches it; it never aborts a digest.
var ErrNotAFunction = errors.New("compiler: value is not a function")

// ErrUnknownFilter is wrapped with the offending name when a `| name` piped
// expression names a filter absent from the registry at evaluation time.
var ErrUnknownFilter = errors.New("compiler: unknown filter")

// ErrNotAnObject is wrapped with the offending key when an assignment path
// would have to create a property on an existing non-mapping, non-falsy
// value.
var ErrNotAnObject = errors.New("compiler: cannot create property on non-object value")
