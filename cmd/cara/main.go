// Command cara is the external interface: a single
// `build` subcommand driving parse -> simplify -> analyse -> codegen ->
// optimise -> emit -> (optionally) link.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plos-clan/cara/internal/ast"
)

var flags struct {
	emit          string
	release       bool
	output        string
	codeModel     string
	optimizeLevel int
	relocMode     string
	crateName     string
	targetTriple  string
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cara",
		Short: "Cara compiler middle-end driver",
	}

	build := &cobra.Command{
		Use:   "build <input>",
		Short: "Compile a Cara source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfigFromFlags(args[0])
			if err != nil {
				return err
			}
			return runBuild(cfg, externalParser, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	build.Flags().StringVar(&flags.emit, "emit", "exe", "ir|asm|obj|exe")
	build.Flags().BoolVar(&flags.release, "release", false, "run the optimizer pipeline before emitting")
	build.Flags().StringVarP(&flags.output, "output", "o", "", "output path")
	build.Flags().StringVar(&flags.codeModel, "code-model", "default", "default|small|kernel|medium|large")
	build.Flags().IntVar(&flags.optimizeLevel, "optimize-level", 0, "0-3")
	build.Flags().StringVar(&flags.relocMode, "reloc-mode", "default", "default|static|pic|dynamic-nopic")
	build.Flags().StringVar(&flags.crateName, "crate-name", "crate", "structural crate name")
	build.Flags().StringVar(&flags.targetTriple, "target", "", "target triple (default: host)")

	root.AddCommand(build)
	return root
}

func buildConfigFromFlags(input string) (buildConfig, error) {
	emit, exe, err := parseEmit(flags.emit)
	if err != nil {
		return buildConfig{}, err
	}
	codeModel, err := parseCodeModel(flags.codeModel)
	if err != nil {
		return buildConfig{}, err
	}
	optimizeLevel, err := parseOptimizeLevel(flags.optimizeLevel)
	if err != nil {
		return buildConfig{}, err
	}
	relocMode, err := parseRelocMode(flags.relocMode)
	if err != nil {
		return buildConfig{}, err
	}
	tr, err := parseTarget(flags.targetTriple)
	if err != nil {
		return buildConfig{}, err
	}
	output := flags.output
	if output == "" {
		output = defaultOutputPath(input, flags.emit, exe)
	}
	return buildConfig{
		InputPath:     input,
		Emit:          emit,
		EmitExe:       exe,
		Release:       flags.release,
		OutputPath:    output,
		CodeModel:     codeModel,
		OptimizeLevel: optimizeLevel,
		RelocMode:     relocMode,
		CrateName:     flags.crateName,
		Target:        tr,
	}, nil
}

func defaultOutputPath(input, emit string, exe bool) string {
	if exe {
		return "a.out"
	}
	return input + "." + emit
}

// externalParser is the lexer/grammar seam, an out-of-scope external
// collaborator: this module ships no concrete implementation,
// so a real `cara build` invocation reports that plainly rather than
// silently doing nothing.
var externalParser ast.ExternalParser

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
