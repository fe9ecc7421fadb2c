package main

import (
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/analyzer"
	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/codegen"
	"github.com/plos-clan/cara/internal/diag"
	"github.com/plos-clan/cara/internal/linker"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/simplifier"
	"github.com/plos-clan/cara/internal/source"
)

// runBuild drives the full pipeline: parse -> simplify
// -> construct a QueryContext -> type-check every top-level definition ->
// bail out on error -> codegen -> optimise -> emit -> (emit=exe) link.
//
// parser is the seam to the out-of-scope lexer/grammar; cmd/cara
// ships no implementation of its own, so tests inject one the same way
// internal/codegen's tests build an AstContext directly.
func runBuild(cfg buildConfig, parser ast.ExternalParser, stdout, stderr io.Writer) error {
	if parser == nil {
		return fmt.Errorf("cara: no lexer/grammar wired in (the lexer/grammar is an external collaborator this module does not implement)")
	}

	text, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("cara: reading %s: %w", cfg.InputPath, err)
	}

	files := source.NewFileTable()
	fileID := files.Intern(cfg.InputPath, string(text))
	pc := ast.NewParseContext(files)
	pc.SetCurrentFile(fileID)

	root, err := parser.ParseFile(pc, fileID, string(text))
	if err != nil {
		return fmt.Errorf("cara: parsing %s: %w", cfg.InputPath, err)
	}

	astCtx := pc.Finish(root)
	simplifier.Run(astCtx, cfg.CrateName) // freezes astCtx

	qc := query.New(astCtx, cfg.CrateName, cfg.Target.AsQueryTarget())

	// One Dump over every DefId shares a single seen set, so a definition
	// that others depend on still reports its diagnostics once.
	bag := analyzer.Dump(qc, analyzer.AnalyzeResult{Required: qc.DefIds()})
	diag.RenderAll(stderr, files, bag)
	if bag.HasError() {
		return fmt.Errorf("cara: compilation failed with errors")
	}

	backend := codegen.NewTextBackend(codegen.BackendOptions{
		CodeModel:     cfg.CodeModel,
		OptimizeLevel: cfg.OptimizeLevel,
		RelocMode:     cfg.RelocMode,
	})
	result, err := codegen.Generate(qc, backend)
	if err != nil {
		return fmt.Errorf("cara: codegen: %w", err)
	}
	if cfg.Release {
		if err := result.Optimize(); err != nil {
			return fmt.Errorf("cara: optimize: %w", err)
		}
	}

	if !cfg.EmitExe {
		return result.Emit(codegen.EmitOptions{OutputType: cfg.Emit, Path: cfg.OutputPath})
	}
	return emitAndLink(cfg, result)
}

// emitAndLink implements `--emit exe`: emit an object to a temporary file,
// then invoke the linker on it.
func emitAndLink(cfg buildConfig, result codegen.Result) error {
	obj, err := os.CreateTemp("", "cara-*.o")
	if err != nil {
		return fmt.Errorf("cara: creating temporary object file: %w", err)
	}
	objPath := obj.Name()
	obj.Close()
	defer os.Remove(objPath)

	if err := result.Emit(codegen.EmitOptions{OutputType: codegen.OutputObject, Path: objPath}); err != nil {
		return fmt.Errorf("cara: emit object: %w", err)
	}

	log.Printf("cara: linking %s -> %s", objPath, cfg.OutputPath)
	return linker.Link(linker.Options{
		ObjectPaths: []string{objPath},
		OutputPath:  cfg.OutputPath,
		Target:      cfg.Target,
	})
}
