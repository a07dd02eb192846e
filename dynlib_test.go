// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kortschak/dynlib/internal/libm"
)

func skipUnsupported(t *testing.T) {
	t.Helper()
	l, err := OpenSelf()
	if errors.Is(err, ErrNotImplemented) {
		t.Skip("dynamic loading not implemented on this platform")
	}
	if err == nil {
		l.Close()
	}
}

func TestLoadingCosine(t *testing.T) {
	if !libm.Linked {
		t.Skip("C math library not linked into test binary")
	}
	// The math library does not need to be loaded since it is
	// linked into the test binary.
	lib, err := OpenSelf()
	if err != nil {
		t.Fatalf("could not open self as module: %v", err)
	}
	defer lib.Close()

	var cos func(float64) float64
	err = lib.Func("cos", &cos)
	if err != nil {
		t.Fatalf("could not load function cos: %v", err)
	}
	const (
		arg  = 0.0
		want = 1.0
	)
	if got := cos(arg); got != want {
		t.Errorf("cos(%v) != %v but equaled %v instead", arg, want, got)
	}
	if got, want := cos(1), libm.Cos(1); got != want {
		t.Errorf("cos(1) != %v but equaled %v instead", want, got)
	}
}

func TestErrorsDoNotCrash(t *testing.T) {
	skipUnsupported(t)

	notLib := filepath.Join(t.TempDir(), "empty.so")
	err := os.WriteFile(notLib, nil, 0o644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	paths := []string{notLib}
	if runtime.GOOS != "windows" {
		paths = append(paths, os.DevNull)
	}
	for _, path := range paths {
		lib, err := Open(path)
		if err == nil {
			lib.Close()
			t.Errorf("successfully opened the empty library %s", path)
			continue
		}
		var oerr *OpenError
		if !errors.As(err, &oerr) {
			t.Errorf("unexpected error type opening %s: %T", path, err)
			continue
		}
		if oerr.Path != path {
			t.Errorf("unexpected path in error: got:%q want:%q", oerr.Path, path)
		}
		if lib != nil {
			t.Errorf("non-nil library returned with error for %s", path)
		}
	}
}

// knownSymbol returns a library and an exported symbol present on the host.
func knownSymbol() (lib, sym string) {
	switch {
	case runtime.GOOS == "windows":
		return "kernel32.dll", "GetTickCount"
	case libm.Linked:
		return "", "cos"
	default:
		return "", "dlopen"
	}
}

func TestSymbolMissingThenValid(t *testing.T) {
	skipUnsupported(t)

	name, sym := knownSymbol()
	lib, err := Open(name)
	if err != nil {
		t.Fatalf("failed to open %q: %v", name, err)
	}
	defer lib.Close()

	for _, bad := range []string{"no_such_symbol_for_test", "emb\x00edded"} {
		_, err = lib.Symbol(bad)
		if err == nil {
			t.Errorf("unexpected success resolving %q", bad)
			continue
		}
		var serr *SymbolError
		if !errors.As(err, &serr) {
			t.Errorf("unexpected error type resolving %q: %T", bad, err)
		} else if serr.Name != bad {
			t.Errorf("unexpected name in error: got:%q want:%q", serr.Name, bad)
		}
	}

	addr, err := lib.Symbol(sym)
	if err != nil {
		t.Fatalf("failed to resolve %s after failed lookups: %v", sym, err)
	}
	if addr == 0 {
		t.Errorf("nil address for %s", sym)
	}
}

func TestClose(t *testing.T) {
	skipUnsupported(t)

	name, sym := knownSymbol()
	lib, err := Open(name)
	if err != nil {
		t.Fatalf("failed to open %q: %v", name, err)
	}
	lib.Close()
	lib.Close()

	_, err = lib.Symbol(sym)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("unexpected error for symbol lookup on closed library: %v", err)
	}

	var nilLib *Library
	nilLib.Close()
}

func TestOpenAny(t *testing.T) {
	skipUnsupported(t)

	missing := []string{
		filepath.Join(t.TempDir(), "libmissing1.so"),
		filepath.Join(t.TempDir(), "libmissing2.so"),
	}

	t.Run("fallback", func(t *testing.T) {
		lib, err := OpenAny(append(missing, "")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer lib.Close()
		if lib.Name() != "" {
			t.Errorf("unexpected library name: %q", lib.Name())
		}
	})

	t.Run("none", func(t *testing.T) {
		_, err := OpenAny(missing...)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound: %v", err)
		}
		var oerr *OpenError
		if !errors.As(err, &oerr) {
			t.Fatalf("expected candidate errors to be wrapped: %v", err)
		}
		for _, m := range missing {
			if !strings.Contains(err.Error(), m) {
				t.Errorf("error does not mention %s: %v", m, err)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := OpenAny()
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound: %v", err)
		}
	})
}

func TestCloseErrorMessage(t *testing.T) {
	err := &CloseError{Library: "libx.so", Err: errors.New("bad unload")}
	if got, want := err.Error(), "error closing libx.so: bad unload"; got != want {
		t.Errorf("unexpected error message: got:%q want:%q", got, want)
	}
	self := &CloseError{Err: errors.New("bad unload")}
	if got, want := self.Error(), "error closing running process: bad unload"; got != want {
		t.Errorf("unexpected error message: got:%q want:%q", got, want)
	}
}

func TestLogValue(t *testing.T) {
	skipUnsupported(t)

	lib, err := OpenSelf()
	if err != nil {
		t.Fatalf("failed to open self: %v", err)
	}
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	log.Info("opened", slog.Any("lib", lib))
	lib.Close()
	log.Info("closed", slog.Any("lib", lib))

	got := buf.String()
	for _, want := range []string{
		`msg=opened lib.name=<self> lib.open=true`,
		`msg=closed lib.name=<self> lib.open=false`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("log output missing %q:\n%s", want, got)
		}
	}
}
