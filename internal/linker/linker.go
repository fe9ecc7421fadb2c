// Package linker implements the linker protocol as "an
// interface": invoking an external linker over an already-emitted object
// file. It is a thin os/exec wrapper, not a linker implementation — the
// actual ld/lld/link.exe binary is an external collaborator, the same way
// the physical LLVM backend is for internal/codegen.
package linker

import (
	"os"
	"os/exec"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/target"
)

// Options configures one link invocation.
type Options struct {
	// ObjectPaths are the object files to link, in order.
	ObjectPaths []string
	// OutputPath is the resulting executable's path.
	OutputPath string
	// Target selects the flavor and whether -nostdlib applies.
	Target target.Triple
	// Via names the driver program to invoke the real linker through
	// ("cc", "lld", or "" for the flavor's bare linker binary).
	Via string
	// ExtraArgs are appended verbatim after the computed argument list.
	ExtraArgs []string
}

// Link invokes an external linker over the given objects. It never links
// in-process: specifies the linker only as an interface, so this
// always shells out.
func Link(opts Options) error {
	name, args := command(opts)
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	log.Printf("linker: %s %v", name, args)
	if err := cmd.Run(); err != nil {
		return errors.E("link "+opts.OutputPath, err)
	}
	return nil
}

// command builds the program name and argument list for one link
// invocation, dispatching on the target's flavor (Gnu, Darwin, Msvc).
func command(opts Options) (string, []string) {
	if opts.Via != "" {
		return opts.Via, gnuArgs(opts)
	}
	switch opts.Target.Flavor {
	case target.Msvc:
		return "link.exe", msvcArgs(opts)
	default:
		return "ld", gnuArgs(opts)
	}
}

// gnuArgs covers both the Gnu and Darwin flavors: ld on both accepts
// "-o PATH" and, for free-standing targets, "-nostdlib".
func gnuArgs(opts Options) []string {
	args := append([]string{}, opts.ObjectPaths...)
	args = append(args, "-o", opts.OutputPath)
	if opts.Target.FreeStanding {
		args = append(args, "-nostdlib")
	}
	return append(args, opts.ExtraArgs...)
}

func msvcArgs(opts Options) []string {
	args := append([]string{}, opts.ObjectPaths...)
	args = append(args, "/OUT:"+opts.OutputPath)
	return append(args, opts.ExtraArgs...)
}
