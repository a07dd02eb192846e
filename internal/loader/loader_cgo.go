// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix && cgo

package loader

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Open opens the library at path. If path is empty, the returned handle
// refers to the running process image. See man 3 dlopen for details.
func Open(path string) (Handle, error) {
	var (
		h   Handle
		err error
	)
	if path == "" {
		h, err = check(func() Handle {
			return Handle(unsafe.Pointer(C.dlopen(nil, C.RTLD_LAZY)))
		})
	} else {
		p, perr := unix.ByteSliceFromString(path)
		if perr != nil {
			return 0, fmt.Errorf("failed to open external %q: %w", path, perr)
		}
		h, err = check(func() Handle {
			return Handle(unsafe.Pointer(C.dlopen((*C.char)(unsafe.Pointer(&p[0])), C.RTLD_LAZY)))
		})
	}
	if err != nil {
		return 0, err
	}
	if h == 0 {
		return 0, errNilHandle
	}
	return h, nil
}

// Symbol returns the address of the named symbol in the library held by h.
// A nil address is a valid result when no error is reported.
func Symbol(h Handle, name string) (uintptr, error) {
	n, err := unix.ByteSliceFromString(name)
	if err != nil {
		return 0, fmt.Errorf("failed to access %q: %w", name, err)
	}
	return check(func() uintptr {
		return uintptr(C.dlsym(unsafe.Pointer(h), (*C.char)(unsafe.Pointer(&n[0]))))
	})
}

// Close releases h. It must be called at most once for each handle
// returned by Open.
func Close(h Handle) error {
	rc, err := check(func() C.int {
		return C.dlclose(unsafe.Pointer(h))
	})
	if err != nil {
		return err
	}
	if rc != 0 {
		return Error(fmt.Sprintf("dlclose failed with status %d", rc))
	}
	return nil
}

// check runs op and then consults dlerror to determine whether op failed.
// The return value of op is not used to make this decision since a nil
// result from dlsym is not necessarily a failure. Any stale message left
// on the thread is discarded before op is run.
func check[T any](op func() T) (T, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	C.dlerror()
	v := op()
	msg := C.dlerror()
	if msg == nil {
		return v, nil
	}
	var zero T
	s := unix.BytePtrToString((*byte)(unsafe.Pointer(msg)))
	if !utf8.ValidString(s) {
		return zero, fmt.Errorf("failed to check for errors: invalid UTF-8 in message %q", s)
	}
	return zero, Error(s)
}
