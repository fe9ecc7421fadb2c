// Package target implements the static target-triple table: a fixed set
// of supported `arch-os-env` strings, each carrying the handful of facts
// codegen and the linker need (pointer width, the object/linker flavor,
// whether the target is free-standing).
package target

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/plos-clan/cara/internal/query"
)

// Flavor selects the linker invocation style.
type Flavor int

const (
	Gnu Flavor = iota
	Darwin
	Msvc
)

func (f Flavor) String() string {
	switch f {
	case Gnu:
		return "gnu"
	case Darwin:
		return "darwin"
	case Msvc:
		return "msvc"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// Triple is one entry of the static table: everything codegen and the
// linker need to know about a target besides the pass/emit options the CLI
// supplies separately.
type Triple struct {
	Arch        string
	OS          string
	Env         string
	PointerBits int
	Flavor      Flavor
	// FreeStanding targets (os=none) pass -nostdlib to the linker and have
	// no libc to link against.
	FreeStanding bool
}

// String renders the canonical "arch-os-env" form.
func (t Triple) String() string {
	return t.Arch + "-" + t.OS + "-" + t.Env
}

// AsQueryTarget projects a Triple down to the subset query.QueryContext
// needs (codegen only ever consults pointer width, via qc.Target()).
func (t Triple) AsQueryTarget() query.Target {
	return query.Target{Arch: t.Arch, OS: t.OS, Env: t.Env, PointerBits: t.PointerBits}
}

// table is the static set of supported triples. New targets are added here,
// never inferred.
var table = map[string]Triple{
	"x86_64-linux-gnu":    {Arch: "x86_64", OS: "linux", Env: "gnu", PointerBits: 64, Flavor: Gnu},
	"x86_64-linux-musl":   {Arch: "x86_64", OS: "linux", Env: "musl", PointerBits: 64, Flavor: Gnu},
	"aarch64-linux-gnu":   {Arch: "aarch64", OS: "linux", Env: "gnu", PointerBits: 64, Flavor: Gnu},
	"aarch64-unknown-none": {Arch: "aarch64", OS: "unknown", Env: "none", PointerBits: 64, Flavor: Gnu, FreeStanding: true},
	"x86_64-unknown-none": {Arch: "x86_64", OS: "unknown", Env: "none", PointerBits: 64, Flavor: Gnu, FreeStanding: true},
	"x86_64-apple-darwin": {Arch: "x86_64", OS: "apple", Env: "darwin", PointerBits: 64, Flavor: Darwin},
	"aarch64-apple-darwin": {Arch: "aarch64", OS: "apple", Env: "darwin", PointerBits: 64, Flavor: Darwin},
	"x86_64-windows-msvc": {Arch: "x86_64", OS: "windows", Env: "msvc", PointerBits: 64, Flavor: Msvc},
	"i686-linux-gnu":      {Arch: "i686", OS: "linux", Env: "gnu", PointerBits: 32, Flavor: Gnu},
}

// Lookup resolves a canonical triple string against the static table.
func Lookup(triple string) (Triple, error) {
	t, ok := table[triple]
	if !ok {
		return Triple{}, fmt.Errorf("target: unsupported triple %q (known: %s)", triple, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names lists every triple the table knows, sorted for stable --help output.
func Names() []string {
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	// insertion order isn't stable across map iterations; sort lazily here
	// rather than keep a parallel ordered slice for a handful of entries.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

// Host derives the default target from the running process's GOARCH/GOOS,
// matching "Default derived from the host cfg."
func Host() Triple {
	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x86_64"
	}
	if arch == "arm64" {
		arch = "aarch64"
	}
	switch runtime.GOOS {
	case "darwin":
		if t, err := Lookup(arch + "-apple-darwin"); err == nil {
			return t
		}
	case "windows":
		if t, err := Lookup(arch + "-windows-msvc"); err == nil {
			return t
		}
	default:
		if t, err := Lookup(arch + "-linux-gnu"); err == nil {
			return t
		}
	}
	// Fall back to the most common triple in the table rather than fail:
	// Host() is only ever a default, never the sole path to a Triple.
	return table["x86_64-linux-gnu"]
}
