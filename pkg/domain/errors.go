package domain

import "fmt"

// ValidationError reports a construction-time violation: a missing or
// mistyped required parameter, inconsistent series shapes, a negative
// uncertainty, or a malformed bin. Field names the first offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid observable: %s: %s", e.Field, e.Reason)
}

// UnknownKindError reports a request for an observable kind that is not
// present in the registry.
type UnknownKindError struct {
	Kind Kind
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("unknown observable kind %q", string(e.Kind))
}

// NotFoundError reports a query for an observable that has no stored
// result. The optional qualifiers identify a disambiguated lookup.
type NotFoundError struct {
	Observable    string
	System        string
	Collaboration string
	ArXiv         string
}

func (e NotFoundError) Error() string {
	if e.System == "" && e.Collaboration == "" && e.ArXiv == "" {
		return fmt.Sprintf("observable %q not found", e.Observable)
	}
	return fmt.Sprintf("observable %q not found for system=%q collaboration=%q arXiv=%q",
		e.Observable, e.System, e.Collaboration, e.ArXiv)
}

// DimensionConflictError reports that resolving a dimension natural key
// produced no usable surrogate id. Under the required isolation this cannot
// happen; when it does the enclosing transaction aborts and the write may
// be retried.
type DimensionConflictError struct {
	Table string
	Key   string
}

func (e DimensionConflictError) Error() string {
	return fmt.Sprintf("dimension conflict: %s key %q yielded no surrogate id", e.Table, e.Key)
}

// SerializationError reports a payload that failed to round-trip through
// the storage encoding. It is a store-integrity fault: the enclosing
// transaction must abort rather than commit a truncated payload.
type SerializationError struct {
	Column string
	Err    error
}

func (e SerializationError) Error() string {
	return fmt.Sprintf("serialization failure in column %s: %v", e.Column, e.Err)
}

func (e SerializationError) Unwrap() error { return e.Err }
