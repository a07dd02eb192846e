// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package libm links the C math library into binaries that import it so
// that its entry points can be resolved from the running process image.
package libm
