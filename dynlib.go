// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dynlib loads shared libraries at run time and resolves the
// addresses of their exported symbols.
//
// A Library is obtained with Open, OpenSelf or OpenAny and must be
// released with Close, usually deferred immediately after a successful
// open. Addresses returned by Symbol are only valid until the Library
// that produced them is closed; this is not tracked by the package.
// Interpreting an address, for example as a function with a particular
// signature, is the caller's responsibility and cannot be checked.
//
// The search path helpers read and write the process environment. They
// are not synchronised with each other or with other users of the
// environment, so callers that modify the search path must do so before
// starting goroutines that read it. On many POSIX hosts the dynamic
// loader only consults the search path variable at process start, so a
// modified search path is mainly of use to child processes.
package dynlib

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kortschak/dynlib/internal/loader"
)

var (
	// ErrNotFound is returned by OpenAny when none of the candidate
	// libraries could be opened.
	ErrNotFound = errors.New("library not found")

	// ErrClosed is returned when a closed Library is used.
	ErrClosed = errors.New("library closed")

	// ErrNotImplemented is returned on hosts without dynamic loading
	// support.
	ErrNotImplemented = loader.ErrNotImplemented
)

// Library is an open dynamically loaded library. A Library must not be
// copied and must not be closed concurrently.
type Library struct {
	handle loader.Handle
	name   string
}

// Open opens the shared library at path. If path is empty, the returned
// Library refers to the running process, allowing symbols linked into
// the executable to be resolved.
//
// Whether repeated opens of the same path share a native module is
// determined by the host; each returned Library must be closed.
func Open(path string) (*Library, error) {
	h, err := loader.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &Library{handle: h, name: path}, nil
}

// OpenSelf returns a Library referring to the running process.
func OpenSelf() (*Library, error) {
	return Open("")
}

// OpenAny opens the first library in names that can be opened. An empty
// name refers to the running process. If no library can be opened the
// returned error wraps ErrNotFound and the error for each candidate.
func OpenAny(names ...string) (*Library, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no candidate names", ErrNotFound)
	}
	errs := make([]error, 0, len(names))
	for _, n := range names {
		l, err := Open(n)
		if err == nil {
			return l, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %q: %w", ErrNotFound, names, errors.Join(errs...))
}

// Name returns the path used to open the library. It is empty for the
// running process.
func (l *Library) Name() string { return l.name }

// Symbol returns the address of the named symbol. The address is only
// valid while l is open. A failed lookup does not affect l.
//
// A nil address without an error is possible on POSIX hosts for symbols
// whose value is nil.
func (l *Library) Symbol(name string) (uintptr, error) {
	if l == nil || l.handle == 0 {
		return 0, &SymbolError{Name: name, Err: ErrClosed}
	}
	addr, err := loader.Symbol(l.handle, name)
	if err != nil {
		return 0, &SymbolError{Library: l.name, Name: name, Err: err}
	}
	return addr, nil
}

// Close unloads the library. Symbols obtained from l must not be used
// after Close has been called. Calls after the first are no-op.
//
// Close panics with a *CloseError if the host fails to release the
// library, since the state of the process's loaded modules is then
// unknown.
func (l *Library) Close() {
	if l == nil || l.handle == 0 {
		return
	}
	h := l.handle
	l.handle = 0
	err := loader.Close(h)
	if err != nil {
		panic(&CloseError{Library: l.name, Err: err})
	}
}

// LogValue implements [slog.LogValuer].
func (l *Library) LogValue() slog.Value {
	if l == nil {
		return slog.StringValue("<nil>")
	}
	name := l.name
	if name == "" {
		name = "<self>"
	}
	return slog.GroupValue(
		slog.String("name", name),
		slog.Bool("open", l.handle != 0),
	)
}

// OpenError is the error returned when a library cannot be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return "could not open running process: " + e.Err.Error()
	}
	return "could not open " + e.Path + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// SymbolError is the error returned when a symbol cannot be resolved.
type SymbolError struct {
	Library string
	Name    string
	Err     error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("could not find %s: %v", e.Name, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }

// CloseError is the panic value used by Close when the host fails to
// release a library.
type CloseError struct {
	Library string
	Err     error
}

func (e *CloseError) Error() string {
	if e.Library == "" {
		return "error closing running process: " + e.Err.Error()
	}
	return "error closing " + e.Library + ": " + e.Err.Error()
}

func (e *CloseError) Unwrap() error { return e.Err }
