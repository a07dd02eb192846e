// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version reports the build version.
package version

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

// String returns the module version and VCS revision of the running
// binary.
func String() (string, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", errors.New("no build info")
	}
	var revision, modified string
	for _, bs := range bi.Settings {
		switch bs.Key {
		case "vcs.revision":
			revision = bs.Value
		case "vcs.modified":
			modified = bs.Value
		}
	}
	switch {
	case revision == "":
		return bi.Main.Version, nil
	case modified == "true":
		return fmt.Sprint(bi.Main.Version, " ", revision, " (modified)"), nil
	case modified == "false":
		return fmt.Sprint(bi.Main.Version, " ", revision), nil
	default:
		// This should never happen.
		return fmt.Sprint(bi.Main.Version, " ", revision, " ", modified), nil
	}
}

// Fprint writes the build version to w.
func Fprint(w io.Writer) error {
	v, err := String()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, v)
	return err
}
