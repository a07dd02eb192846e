// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows && !(unix && cgo) && !((linux || darwin) && !cgo && (amd64 || arm64))

package loader

// Open is not implemented on this platform.
func Open(path string) (Handle, error) {
	return 0, ErrNotImplemented
}

// Symbol is not implemented on this platform.
func Symbol(h Handle, name string) (uintptr, error) {
	return 0, ErrNotImplemented
}

// Close is not implemented on this platform.
func Close(h Handle) error {
	return ErrNotImplemented
}
