package domain

import (
	"cmp"
	"slices"
	"unique"
)

// InternedString is a value object that wraps a unique.Handle[string].
// Device and task names are compared on every message, so they are interned once at load time.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings creates a new InternedString slice from a string slice.
func NewInternedStrings(s []string) []InternedString {
	res := make([]InternedString, len(s))
	for i, s := range s {
		res[i] = NewInternedString(s)
	}
	return res
}

// String returns the underlying string value, or "" for the zero value.
func (is InternedString) String() string {
	if is.IsZero() {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never assigned.
func (is InternedString) IsZero() bool {
	return is.h == unique.Handle[string]{}
}

// Value returns the underlying unique.Handle[string].
func (is InternedString) Value() unique.Handle[string] {
	return is.h
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}

// CompareInterned orders two names lexically.
func CompareInterned(a, b InternedString) int {
	return cmp.Compare(a.String(), b.String())
}

// SortedInterned returns a lexically sorted copy of names.
func SortedInterned(names []InternedString) []InternedString {
	out := slices.Clone(names)
	slices.SortFunc(out, CompareInterned)
	return out
}
