// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader marshals calls to the host's dynamic loading primitives.
//
// Each backend provides Open, Symbol and Close, and translates the host's
// error reporting convention in a private check function. On POSIX hosts
// the convention is the sticky message returned by dlerror, on Windows it
// is the thread's last-error code. Both are thread scoped, so every native
// call and its error query are made with the calling goroutine locked to
// its OS thread.
//
// Failures are always returned as errors, never treated as fatal.
package loader

import "errors"

// Handle is an opaque native library handle. It is only meaningful to the
// backend that issued it.
type Handle uintptr

// Error is a message reported by the host loader.
type Error string

func (e Error) Error() string { return string(e) }

// ErrNotImplemented is returned by all operations on hosts without a
// dynamic loading backend.
var ErrNotImplemented = errors.New("dynamic loading not implemented")

// errNilHandle is returned when the host returns a nil handle without
// reporting an error.
const errNilHandle = Error("loader returned a nil handle")
