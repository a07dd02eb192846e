// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPrependSearchPathQuoted(t *testing.T) {
	t.Setenv(EnvVar(), `C:\Windows`)

	err := PrependSearchPath(`C:\odd;dir`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{`C:\odd;dir`, `C:\Windows`}
	got := SearchPath()
	if !cmp.Equal(want, got) {
		t.Errorf("unexpected search path:\n--- want:\n+++ got:\n%s",
			cmp.Diff(want, got))
	}

	if PrependSearchPath(`C:\"quoted"`) == nil {
		t.Error("unexpected success prepending entry containing quote")
	}
}
