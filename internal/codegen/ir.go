package codegen

import (
	"fmt"
	"strings"

	"github.com/plos-clan/cara/internal/types"
)

// Module, Function and Block are the self-contained in-memory IR the text
// backend builds and serialises. the "IR construction
// strategy" in, and the physical LLVM bindings explicitly out, so there is
// no real LLVM module underneath this: Module plays the role LLVMModuleRef
// plays in codegen_llvm, but owns its own textual rendering instead of
// delegating to a wrapped C++ object.
type Module struct {
	Name      string
	Functions []*Function
	strings   []globalString
	strSeq    int
}

type globalString struct {
	Name  string
	Value string
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) AddFunction(f *Function) {
	m.Functions = append(m.Functions, f)
}

func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// internString interns value as a module-level string constant and returns
// its global name, mirroring LLVM's deduplicated string-literal globals
// closely enough for the textual IR's purposes.
func (m *Module) internString(value string) string {
	for _, g := range m.strings {
		if g.Value == value {
			return g.Name
		}
	}
	m.strSeq++
	name := fmt.Sprintf("@.str.%d", m.strSeq)
	m.strings = append(m.strings, globalString{Name: name, Value: value})
	return name
}

func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %s\n", m.Name)
	for _, g := range m.strings {
		fmt.Fprintf(&b, "%s = private constant %q\n", g.Name, g.Value)
	}
	for _, f := range m.Functions {
		b.WriteString(f.String())
	}
	return b.String()
}

// Function is one codegen unit's emitted IR: either a bodyless declaration
// (Declaration == true, no Blocks) or a full definition.
type Function struct {
	Name        string
	Params      []types.Type
	ParamNames  []string
	RetType     types.Type
	Declaration bool
	Blocks      []*Block

	tempSeq  int
	blockSeq int
	current  *Block
}

func NewFunction(name string, params []types.Type, paramNames []string, ret types.Type, declaration bool) *Function {
	return &Function{Name: name, Params: params, ParamNames: paramNames, RetType: ret, Declaration: declaration}
}

// NewTemp mints a fresh SSA-style register name, unique within f.
func (f *Function) NewTemp() string {
	f.tempSeq++
	return fmt.Sprintf("%%t%d", f.tempSeq)
}

// NewBlock opens a new basic block labelled label (or an autogenerated
// label if label is empty), appends it, and makes it current.
func (f *Function) NewBlock(label string) *Block {
	if label == "" {
		f.blockSeq++
		label = fmt.Sprintf("bb%d", f.blockSeq)
	}
	b := &Block{Label: label}
	f.Blocks = append(f.Blocks, b)
	f.current = b
	return b
}

// CurrentBlock is the block the lowering walk is appending instructions
// into. It is tracked explicitly (not inferred from append order) so a
// control-flow construct can mint a block for a label it needs up front
// (e.g. an if's end block) without losing its place in the block it is
// still populating.
func (f *Function) CurrentBlock() *Block {
	return f.current
}

// SetCurrent resumes appending into an earlier-opened block, e.g. after
// minting a successor block purely to learn its label.
func (f *Function) SetCurrent(b *Block) {
	f.current = b
}

func (f *Function) signature() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := ""
		if i < len(f.ParamNames) {
			name = " %" + f.ParamNames[i]
		}
		parts[i] = p.String() + name
	}
	return fmt.Sprintf("%s(%s) -> %s", f.Name, strings.Join(parts, ", "), f.RetType.String())
}

func (f *Function) String() string {
	var b strings.Builder
	if f.Declaration {
		fmt.Fprintf(&b, "declare %s\n", f.signature())
		return b.String()
	}
	fmt.Fprintf(&b, "define %s {\n", f.signature())
	for _, block := range f.Blocks {
		fmt.Fprintf(&b, "%s:\n", block.Label)
		for _, line := range block.Lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if block.Term != "" {
			fmt.Fprintf(&b, "  %s\n", block.Term)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Block is one basic block: a straight-line instruction list plus exactly
// one terminator (its "three-block if/else" and loop shapes are
// built by opening new Blocks and Terminate-ing the ones that fall through
// to them).
type Block struct {
	Label string
	Lines []string
	Term  string
}

func (b *Block) Emit(line string) {
	b.Lines = append(b.Lines, line)
}

// Terminate sets b's terminator if none has been set yet; later calls are
// ignored, matching LLVM's "a block may have at most one terminator" rule
// without needing a hard error in a student implementation.
func (b *Block) Terminate(term string) {
	if b.Term == "" {
		b.Term = term
	}
}

func (b *Block) Terminated() bool {
	return b.Term != ""
}

func intLiteral(v int64) string {
	return fmt.Sprintf("%d", v)
}
