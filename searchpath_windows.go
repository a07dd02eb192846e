// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	envVar    = "PATH"
	separator = ";"
)

// validEntry returns an error if dir cannot be represented in the search
// path. Entries containing the separator are quoted by appendEntry, but
// quotes cannot be escaped.
func validEntry(dir string) error {
	if strings.Contains(dir, `"`) {
		return fmt.Errorf("invalid search path entry %q: contains quote", dir)
	}
	return nil
}

// appendEntry appends p to b, quoting it if it contains the separator so
// that it is recovered by filepath.SplitList.
func appendEntry(b []byte, p string) []byte {
	if !strings.Contains(p, separator) {
		return append(b, p...)
	}
	b = append(b, '"')
	b = append(b, p...)
	return append(b, '"')
}

// splitList splits v, removing quotes around entries.
func splitList(v string) []string {
	return filepath.SplitList(v)
}
