package codegen

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/log"
)

// optimizePasses is the fixed named pass pipeline
// running over a built module before emission.
var optimizePasses = []string{"instcombine", "reassociate", "gvn", "simplifycfg", "mem2reg", "dce", "dse"}

// TextResult is TextBackend's CodegenResult: it owns the built Module and
// renders it as text rather than handing off to a real optimizer or
// assembler, since both are part of the out-of-scope physical LLVM layer.
type TextResult struct {
	module    *Module
	opts      BackendOptions
	optimized bool
}

// Optimize logs the fixed pass pipeline names; there is no real
// optimizer underneath to run it against, since this repo never binds to
// an actual LLVM pass manager.
func (r *TextResult) Optimize() error {
	for _, pass := range optimizePasses {
		log.Printf("codegen: running pass %q (code model %s, opt level %s)", pass, r.opts.CodeModel, r.opts.OptimizeLevel)
	}
	r.optimized = true
	return nil
}

// Emit writes the module per opts. Only OutputIR is a real implementation;
// OutputAsm/OutputObject stand for what a physical backend would produce.
func (r *TextResult) Emit(opts EmitOptions) error {
	switch opts.OutputType {
	case OutputIR:
		return r.writeTo(opts.Path, r.module.String())
	case OutputAsm, OutputObject:
		return fmt.Errorf("codegen: %v emission requires the physical LLVM backend, which this implementation does not provide", opts.OutputType)
	default:
		return fmt.Errorf("codegen: unknown output type %d", opts.OutputType)
	}
}

func (r *TextResult) writeTo(path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func (r *TextResult) Dump(w io.Writer) {
	fmt.Fprintln(w, r.module.String())
}
