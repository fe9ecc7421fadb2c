package main

import (
	"fmt"
	"strings"

	"github.com/plos-clan/cara/internal/codegen"
	"github.com/plos-clan/cara/internal/target"
)

// buildConfig is the parsed, validated form of the `build` command's flags
//.
type buildConfig struct {
	InputPath     string
	Emit          codegen.OutputType
	EmitExe       bool // --emit exe: object + link, not a codegen.OutputType of its own
	Release       bool
	OutputPath    string
	CodeModel     codegen.CodeModel
	OptimizeLevel codegen.OptimizeLevel
	RelocMode     codegen.RelocMode
	CrateName     string
	Target        target.Triple
}

func parseEmit(s string) (outputType codegen.OutputType, exe bool, err error) {
	switch strings.ToLower(s) {
	case "ir":
		return codegen.OutputIR, false, nil
	case "asm":
		return codegen.OutputAsm, false, nil
	case "obj":
		return codegen.OutputObject, false, nil
	case "exe":
		return codegen.OutputObject, true, nil
	default:
		return 0, false, fmt.Errorf("cara: unknown --emit value %q (want ir|asm|obj|exe)", s)
	}
}

func parseCodeModel(s string) (codegen.CodeModel, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return codegen.CodeModelDefault, nil
	case "small":
		return codegen.CodeModelSmall, nil
	case "kernel":
		return codegen.CodeModelKernel, nil
	case "medium":
		return codegen.CodeModelMedium, nil
	case "large":
		return codegen.CodeModelLarge, nil
	default:
		return 0, fmt.Errorf("cara: unknown --code-model value %q", s)
	}
}

func parseOptimizeLevel(n int) (codegen.OptimizeLevel, error) {
	switch n {
	case 0:
		return codegen.O0, nil
	case 1:
		return codegen.O1, nil
	case 2:
		return codegen.O2, nil
	case 3:
		return codegen.O3, nil
	default:
		return 0, fmt.Errorf("cara: --optimize-level must be 0-3, got %d", n)
	}
}

func parseRelocMode(s string) (codegen.RelocMode, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return codegen.RelocDefault, nil
	case "static":
		return codegen.RelocStatic, nil
	case "pic":
		return codegen.RelocPIC, nil
	case "dynamic-nopic":
		return codegen.RelocDynamicNoPic, nil
	default:
		return 0, fmt.Errorf("cara: unknown --reloc-mode value %q", s)
	}
}

func parseTarget(s string) (target.Triple, error) {
	if s == "" {
		return target.Host(), nil
	}
	return target.Lookup(s)
}
