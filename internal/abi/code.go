// Package abi encodes hostsnap values for a C-style boundary: numeric
// error codes, sentinel-carrying raw structs and owned allocations that
// must be released exactly once.
package abi

import (
	"strconv"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Code is an error kind or Success as it crosses the boundary.
type Code uint8

// Success is disjoint from every error kind. Zero is ApiUnavailable.
const Success Code = 255

// CodeOf encodes err. nil encodes as Success.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	return Code(errs.KindOf(err))
}

// Err decodes c. Success decodes to nil and unknown codes to Other.
func (c Code) Err() error {
	if c == Success {
		return nil
	}
	kind := errs.Kind(c)
	if !kind.Valid() {
		kind = errs.Other
	}
	return errs.New(kind, "abi", "code "+strconv.Itoa(int(c)))
}

func (c Code) String() string {
	if c == Success {
		return "success"
	}
	if k := errs.Kind(c); k.Valid() {
		return k.String()
	}
	return "code(" + strconv.Itoa(int(c)) + ")"
}
