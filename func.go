// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (darwin || freebsd || linux || windows) && (amd64 || arm64)

package dynlib

import (
	"errors"

	"github.com/ebitengine/purego"
)

// Func resolves the named symbol and binds it to the function pointed to
// by fptr so that calls to the function call the symbol. For example
//
//	var cos func(float64) float64
//	err := lib.Func("cos", &cos)
//
// The function type is not checked against the symbol; a mismatched
// signature has undefined behaviour. The bound function must not be
// called after l is closed. Func panics if fptr is not a pointer to a
// function or the function type is not supported by purego.
func (l *Library) Func(name string, fptr any) error {
	addr, err := l.Symbol(name)
	if err != nil {
		return err
	}
	if addr == 0 {
		return &SymbolError{Library: l.name, Name: name, Err: errors.New("nil address")}
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}
