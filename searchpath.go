// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import (
	"errors"
	"os"
)

// EnvVar returns the name of the environment variable holding the host's
// dynamic library search path: PATH on Windows, DYLD_LIBRARY_PATH on
// macOS and LD_LIBRARY_PATH elsewhere.
func EnvVar() string { return envVar }

// Separator returns the search path list separator.
func Separator() string { return separator }

// SearchPath returns the current dynamic library search path in
// precedence order. An unset or empty variable gives an empty list.
// Duplicate entries are retained.
func SearchPath() []string {
	v := os.Getenv(envVar)
	if v == "" {
		return nil
	}
	return splitList(v)
}

// PrependSearchPath inserts dir at the start of the dynamic library
// search path, rewriting the environment variable returned by EnvVar.
// An empty dir is rejected since it cannot be distinguished from an
// empty search path.
//
// PrependSearchPath modifies the process environment without
// synchronisation; see the package documentation.
func PrependSearchPath(dir string) error {
	if dir == "" {
		return errors.New("invalid search path entry: empty")
	}
	err := validEntry(dir)
	if err != nil {
		return err
	}
	path := append([]string{dir}, SearchPath()...)
	return os.Setenv(envVar, JoinPaths(path))
}

// JoinPaths joins the paths in list into a single search path value.
func JoinPaths(list []string) string {
	var n int
	for _, p := range list {
		n += len(p) + len(separator)
	}
	b := make([]byte, 0, n)
	for i, p := range list {
		if i > 0 {
			b = append(b, separator...)
		}
		b = appendEntry(b, p)
	}
	return string(b)
}
