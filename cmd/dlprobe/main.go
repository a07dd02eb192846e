// Copyright ©2026 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The dlprobe executable checks that shared libraries can be loaded and
// that their symbols resolve, as described by a TOML manifest.
//
// For each library in the manifest, dlprobe opens the first loadable
// candidate name, resolves each listed symbol and optionally calls
// float64 to float64 functions, comparing the result with an expected
// value. One JSON result is written to stdout for each library.
//
// Example manifest:
//
//	search_path = ["lib"]
//
//	[[library]]
//	names = ["libdemo.so", "libdemo.dylib"]
//	symbols = ["cosine"]
//
//	[[library.call]]
//	symbol = "cosine"
//	arg = 0.0
//	want = 1.0
//
// A library with no names refers to the dlprobe process itself.
//
// Search path directories from the manifest and the -search flag are
// prepended to the dynamic library search path variable, and bare library
// names are also looked for in each search path directory, since not all
// hosts consult the variable after process start.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kortschak/dynlib"
	"github.com/kortschak/dynlib/internal/slogext"
	"github.com/kortschak/dynlib/internal/version"
)

// Exit status codes.
const (
	success       = 0
	probeFailure  = 1 << (iota - 1)
	invocationError
)

func main() { os.Exit(Main()) }

func Main() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %s:

  %[1]s [-log level] [-lines] [-search dir]... <manifest.toml>

`, os.Args[0])
		flag.PrintDefaults()
	}
	var search stringList
	flag.Var(&search, "search", "directory to prepend to the library search path (may be repeated)")
	logging := flag.String("log", "info", "logging level (debug, info, warn or error)")
	lines := flag.Bool("lines", false, "display source line details in logs")
	v := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *v {
		err := version.Fprint(os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return probeFailure
		}
		return success
	}
	if len(flag.Args()) != 1 {
		flag.Usage()
		return invocationError
	}

	var level slog.LevelVar
	err := level.UnmarshalText([]byte(*logging))
	if err != nil {
		flag.Usage()
		return invocationError
	}
	log := slog.New(slogext.GoID{Handler: slogext.NewJSONHandler(os.Stderr, &slogext.HandlerOptions{
		Level:     &level,
		AddSource: slogext.NewAtomicBool(*lines),
	})})
	mlog := log.With(slog.String("component", "dlprobe.main"))

	ctx := context.Background()

	m, err := readManifest(flag.Arg(0))
	if err != nil {
		mlog.LogAttrs(ctx, slog.LevelError, "invalid manifest", slog.Any("error", err))
		return invocationError
	}

	// Prepend in reverse so that the resulting search path starts with
	// the manifest entries in order, followed by the -search entries.
	dirs := append(append([]string(nil), m.SearchPath...), search...)
	for i := len(dirs) - 1; i >= 0; i-- {
		err := dynlib.PrependSearchPath(dirs[i])
		if err != nil {
			mlog.LogAttrs(ctx, slog.LevelError, "invalid search path", slog.Any("error", err))
			return invocationError
		}
	}
	mlog.LogAttrs(ctx, slog.LevelInfo, "search path",
		slog.String("var", dynlib.EnvVar()),
		slog.Any("path", dynlib.SearchPath()),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	status := success
	for i, lib := range m.Library {
		res := probe(ctx, log.With(slog.String("component", "dlprobe.probe"), slog.Int("library", i)), lib)
		if !res.OK {
			status = probeFailure
		}
		err := enc.Encode(res)
		if err != nil {
			mlog.LogAttrs(ctx, slog.LevelError, "failed to write result", slog.Any("error", err))
			return probeFailure
		}
	}
	return status
}

// stringList is a flag.Value collecting repeated flag values.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type manifest struct {
	SearchPath []string  `toml:"search_path"`
	Library    []library `toml:"library"`
}

type library struct {
	Names   []string `toml:"names"`
	Symbols []string `toml:"symbols"`
	Call    []call   `toml:"call"`
}

type call struct {
	Symbol string  `toml:"symbol"`
	Arg    float64 `toml:"arg"`
	Want   float64 `toml:"want"`
}

func readManifest(path string) (*manifest, error) {
	var m manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, err
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	for i, lib := range m.Library {
		for j, c := range lib.Call {
			if c.Symbol == "" {
				return nil, fmt.Errorf("library %d call %d: missing symbol", i, j)
			}
		}
	}
	return &m, nil
}

type result struct {
	Library string            `json:"library,omitempty"`
	Names   []string          `json:"names,omitempty"`
	Error   string            `json:"error,omitempty"`
	Symbols map[string]string `json:"symbols,omitempty"`
	Calls   []callResult      `json:"calls,omitempty"`
	OK      bool              `json:"ok"`
}

type callResult struct {
	Symbol string  `json:"symbol"`
	Arg    float64 `json:"arg"`
	Want   float64 `json:"want"`
	Got    float64 `json:"got"`
	Error  string  `json:"error,omitempty"`
	OK     bool    `json:"ok"`
}

func probe(ctx context.Context, log *slog.Logger, want library) result {
	res := result{Names: want.Names}

	lib, err := open(want.Names)
	if err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "open failed", slog.Any("names", want.Names), slog.Any("error", err))
		res.Error = err.Error()
		return res
	}
	defer lib.Close()
	res.Library = lib.Name()
	if res.Library == "" {
		res.Library = "<self>"
	}
	log.LogAttrs(ctx, slog.LevelDebug, "opened", slog.Any("lib", lib))

	res.OK = true
	if len(want.Symbols) != 0 {
		res.Symbols = make(map[string]string, len(want.Symbols))
	}
	for _, sym := range want.Symbols {
		_, err := lib.Symbol(sym)
		if err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "symbol lookup failed", slog.Any("lib", lib), slog.String("symbol", sym), slog.Any("error", err))
			res.Symbols[sym] = err.Error()
			res.OK = false
			continue
		}
		res.Symbols[sym] = "ok"
	}
	for _, c := range want.Call {
		cr := invoke(lib, c)
		if !cr.OK {
			log.LogAttrs(ctx, slog.LevelWarn, "call failed", slog.Any("lib", lib), slog.String("symbol", c.Symbol),
				slog.Float64("got", cr.Got), slog.Float64("want", cr.Want), slog.String("error", cr.Error))
			res.OK = false
		}
		res.Calls = append(res.Calls, cr)
	}
	return res
}

func invoke(lib *dynlib.Library, c call) callResult {
	cr := callResult{Symbol: c.Symbol, Arg: c.Arg, Want: c.Want}
	var fn func(float64) float64
	err := lib.Func(c.Symbol, &fn)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Got = fn(c.Arg)
	cr.OK = cr.Got == c.Want
	return cr
}

// open opens the first loadable library in names, or the running process
// if names is empty. Bare names are first looked for in each directory
// of the current search path.
func open(names []string) (*dynlib.Library, error) {
	if len(names) == 0 {
		return dynlib.OpenSelf()
	}
	return dynlib.OpenAny(candidates(names, dynlib.SearchPath())...)
}

func candidates(names, dirs []string) []string {
	var c []string
	for _, n := range names {
		if n != "" && !strings.ContainsAny(n, `/\`) {
			for _, d := range dirs {
				if d == "" {
					continue
				}
				p := filepath.Join(d, n)
				if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
					continue
				}
				c = append(c, p)
			}
		}
		c = append(c, n)
	}
	return c
}
