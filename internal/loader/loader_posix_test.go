// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (unix && cgo) || ((linux || darwin) && !cgo && (amd64 || arm64))

package loader

import (
	"os"
	"testing"
)

func TestCheckSuccess(t *testing.T) {
	got, err := check(func() int { return 42 })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("unexpected result: got:%d want:42", got)
	}
}

func TestCheckAfterFailure(t *testing.T) {
	// The message from a failed open is consumed by that open's check.
	_, err := Open(os.DevNull)
	if err == nil {
		t.Fatal("unexpected success opening null device")
	}
	_, err = check(func() struct{} { return struct{}{} })
	if err != nil {
		t.Errorf("unexpected error after failed open: %v", err)
	}
}
