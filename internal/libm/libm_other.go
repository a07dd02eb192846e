// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(unix && cgo)

package libm

import "math"

// Linked reports whether the C math library is linked into the binary.
const Linked = false

// Cos returns math.Cos(x).
func Cos(x float64) float64 { return math.Cos(x) }
