// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix && cgo

package libm

/*
#cgo !darwin LDFLAGS: -lm
#include <math.h>

static double libm_cos(double x) { return cos(x); }
*/
import "C"

// Linked reports whether the C math library is linked into the binary.
const Linked = true

// Cos returns the result of the C library cos function.
func Cos(x float64) float64 { return float64(C.libm_cos(C.double(x))) }
