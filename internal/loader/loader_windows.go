// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package loader

import (
	"fmt"
	"runtime"
	"strings"
	"syscall"
	"unicode"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procLoadLibraryW       = kernel32.NewProc("LoadLibraryW")
	procGetModuleHandleExW = kernel32.NewProc("GetModuleHandleExW")
	procGetProcAddress     = kernel32.NewProc("GetProcAddress")
	procFreeLibrary        = kernel32.NewProc("FreeLibrary")
	procSetLastError       = kernel32.NewProc("SetLastError")
	procSetThreadErrorMode = kernel32.NewProc("SetThreadErrorMode")
	procSetErrorMode       = kernel32.NewProc("SetErrorMode")
)

const (
	semFailCriticalErrors = 0x0001

	errCallNotImplemented syscall.Errno = 120
)

// Open opens the library at path. If path is empty, the returned handle
// refers to the running process image.
//
// The system's error dialog for missing modules is suppressed for the
// duration of the call.
func Open(path string) (Handle, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var (
		p   *uint16
		err error
	)
	if path != "" {
		p, err = windows.UTF16PtrFromString(path)
		if err != nil {
			return 0, fmt.Errorf("failed to open external %q: %w", path, err)
		}
	}

	restore := suppressErrorDialog()
	defer restore()

	// Success is determined by the returned handle. The thread's
	// last-error code may be set by a successful load.
	if p == nil {
		var h windows.Handle
		ok, _, e := procGetModuleHandleExW.Call(0, 0, uintptr(unsafe.Pointer(&h)))
		if ok == 0 || h == 0 {
			return 0, openError(e)
		}
		return Handle(h), nil
	}
	h, _, e := procLoadLibraryW.Call(uintptr(unsafe.Pointer(p)))
	if h == 0 {
		return 0, openError(e)
	}
	return Handle(h), nil
}

// openError returns the error for a failed open, which is reported even
// if the call left no last-error code.
func openError(e error) error {
	err := lastError(e)
	if err == nil {
		return errNilHandle
	}
	return err
}

// suppressErrorDialog sets the thread error mode to suppress critical
// error dialogs, falling back to the process error mode when thread
// error modes are not available. The returned function restores the
// previous mode.
func suppressErrorDialog() (restore func()) {
	if procSetThreadErrorMode.Find() == nil {
		var prev uint32
		ok, _, e := procSetThreadErrorMode.Call(semFailCriticalErrors, uintptr(unsafe.Pointer(&prev)))
		if ok != 0 {
			return func() {
				procSetThreadErrorMode.Call(uintptr(prev), 0)
			}
		}
		if e != errCallNotImplemented {
			// The mode was not changed, so there is nothing to restore.
			return func() {}
		}
	}
	// SetErrorMode is process-wide, so this races with other threads
	// changing the error mode.
	prev, _, _ := procSetErrorMode.Call(semFailCriticalErrors)
	return func() {
		procSetErrorMode.Call(prev)
	}
}

// Symbol returns the address of the named symbol in the library held by h.
func Symbol(h Handle, name string) (uintptr, error) {
	n, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("failed to access %q: %w", name, err)
	}
	return check(func() (uintptr, error) {
		addr, _, e := procGetProcAddress.Call(uintptr(h), uintptr(unsafe.Pointer(n)))
		return addr, e
	})
}

// Close releases h. It must be called at most once for each handle
// returned by Open.
func Close(h Handle) error {
	ok, err := check(func() (uintptr, error) {
		ok, _, e := procFreeLibrary.Call(uintptr(h))
		return ok, e
	})
	if err != nil {
		return err
	}
	if ok == 0 {
		return Error("FreeLibrary failed")
	}
	return nil
}

// check clears the thread's last-error code, runs op and then reports the
// last-error code left by op's native call. op must return the error value
// obtained from the native call, which holds the code observed by the
// runtime immediately after the call returned.
func check[T any](op func() (T, error)) (T, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	procSetLastError.Call(0)
	v, e := op()
	if err := lastError(e); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// lastError translates the error returned from a lazy procedure call into
// an Error, returning nil if the call left no error code.
func lastError(e error) error {
	code, ok := e.(syscall.Errno)
	if !ok {
		if e == nil {
			return nil
		}
		return Error(e.Error())
	}
	if code == 0 {
		return nil
	}
	return Error(formatMessage(uint32(code)))
}

// formatMessage returns the system message for code.
func formatMessage(code uint32) string {
	buf := make([]uint16, 512)
	n, err := windows.FormatMessage(
		windows.FORMAT_MESSAGE_FROM_SYSTEM|windows.FORMAT_MESSAGE_IGNORE_INSERTS,
		0, code, 0, buf, nil,
	)
	if err != nil || n == 0 {
		return fmt.Sprintf("OS Error %d", code)
	}
	return strings.TrimRightFunc(windows.UTF16ToString(buf[:n]), unicode.IsSpace)
}
