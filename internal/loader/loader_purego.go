// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (linux || darwin) && !cgo && (amd64 || arm64)

package loader

import (
	"fmt"
	"runtime"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// The libdl entry points are called directly rather than through
// purego.Dlopen and friends since those consume the dlerror message
// before check can see it.
var (
	dlopen  func(path unsafe.Pointer, mode int32) uintptr
	dlsym   func(handle uintptr, name unsafe.Pointer) uintptr
	dlclose func(handle uintptr) int32
	dlerror func() uintptr

	bindOnce sync.Once
	bindErr  error
)

func bind() error {
	bindOnce.Do(func() {
		for _, fn := range []struct {
			fptr any
			name string
		}{
			{&dlopen, "dlopen"},
			{&dlsym, "dlsym"},
			{&dlclose, "dlclose"},
			{&dlerror, "dlerror"},
		} {
			addr, err := purego.Dlsym(purego.RTLD_DEFAULT, fn.name)
			if err != nil {
				bindErr = fmt.Errorf("could not bind %s: %w", fn.name, err)
				return
			}
			purego.RegisterFunc(fn.fptr, addr)
		}
	})
	return bindErr
}

// Open opens the library at path. If path is empty, the returned handle
// refers to the running process image. See man 3 dlopen for details.
func Open(path string) (Handle, error) {
	err := bind()
	if err != nil {
		return 0, err
	}
	var p unsafe.Pointer
	if path != "" {
		b, err := unix.ByteSliceFromString(path)
		if err != nil {
			return 0, fmt.Errorf("failed to open external %q: %w", path, err)
		}
		p = unsafe.Pointer(&b[0])
	}
	h, err := check(func() Handle {
		return Handle(dlopen(p, purego.RTLD_LAZY))
	})
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
	err := bind()
	if err != nil {
		return 0, err
	}
	n, err := unix.ByteSliceFromString(name)
	if err != nil {
		return 0, fmt.Errorf("failed to access %q: %w", name, err)
	}
	return check(func() uintptr {
		return dlsym(uintptr(h), unsafe.Pointer(&n[0]))
	})
}

// Close releases h. It must be called at most once for each handle
// returned by Open.
func Close(h Handle) error {
	err := bind()
	if err != nil {
		return err
	}
	rc, err := check(func() int32 {
		return dlclose(uintptr(h))
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
	var zero T
	err := bind()
	if err != nil {
		return zero, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	dlerror()
	v := op()
	msg := dlerror()
	if msg == 0 {
		return v, nil
	}
	s := unix.BytePtrToString((*byte)(unsafe.Pointer(msg)))
	if !utf8.ValidString(s) {
		return zero, fmt.Errorf("failed to check for errors: invalid UTF-8 in message %q", s)
	}
	return zero, Error(s)
}
