// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !windows

package dynlib

import (
	"fmt"
	"strings"
)

// validEntry returns an error if dir cannot be represented in the search
// path.
func validEntry(dir string) error {
	if strings.Contains(dir, separator) {
		return fmt.Errorf("invalid search path entry %q: contains %q", dir, separator)
	}
	return nil
}

func appendEntry(b []byte, p string) []byte {
	return append(b, p...)
}

func splitList(v string) []string {
	return strings.Split(v, separator)
}
