// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !((darwin || freebsd || linux || windows) && (amd64 || arm64))

package dynlib

// Func is not implemented on this platform.
func (l *Library) Func(name string, fptr any) error {
	return &SymbolError{Library: l.name, Name: name, Err: ErrNotImplemented}
}
