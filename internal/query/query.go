// Package query implements the demand-driven, memoising query engine
//: Providers are pure functions from (QueryContext, Arg) to
// Result; query_cached memoises per (provider, context, arg); query always runs the
// provider body on the worker pool without caching.
package query

import (
	"context"
	"runtime"
	"sync"

	"github.com/grailbio/base/must"
	"golang.org/x/sync/semaphore"

	"github.com/plos-clan/cara/internal/ast"
)

// Target describes the compilation target the query context was built for.
type Target struct {
	Arch        string
	OS          string
	Env         string
	PointerBits int
}

// QueryContext is the shared, read-mostly state every provider runs
// against: the frozen AST, the table of top-level definitions, the crate
// name/target, and the worker pool used to execute provider bodies.
type QueryContext struct {
	astCtx    *ast.AstContext
	crateName string
	target    Target

	consts  map[ast.DefId]*ast.ConstDef
	defIDs  []ast.DefId // insertion order over post-simplification top-level defs

	// sem bounds the number of provider bodies running concurrently, acting
	// as the "worker pool": Query acquires a slot
	// before invoking the provider function and releases it on return, so a
	// pathological fan-out of recursive query_cached calls (e.g. a deep
	// const-eval dependency chain) cannot spawn unbounded goroutines.
	sem *semaphore.Weighted
}

// New builds a QueryContext over an already-simplified, frozen AstContext.
// DefIds are assigned in insertion order over the post-simplification
// top-level definitions.
func New(astCtx *ast.AstContext, crateName string, target Target) *QueryContext {
	must.Truef(astCtx.Frozen(), "query: AstContext must be frozen (simplified) before building a QueryContext")

	consts := make(map[ast.DefId]*ast.ConstDef, len(astCtx.Root.Members))
	defIDs := make([]ast.DefId, 0, len(astCtx.Root.Members))
	for i, item := range astCtx.Root.Members {
		id := ast.DefId(i)
		consts[id] = item.Def
		defIDs = append(defIDs, id)
	}

	poolSize := runtime.GOMAXPROCS(0) * 4
	if poolSize < 4 {
		poolSize = 4
	}
	return &QueryContext{
		astCtx:    astCtx,
		crateName: crateName,
		target:    target,
		consts:    consts,
		defIDs:    defIDs,
		sem:       semaphore.NewWeighted(int64(poolSize)),
	}
}

// AstContext returns the frozen AST this context was built over.
func (q *QueryContext) AstContext() *ast.AstContext { return q.astCtx }

// CrateName returns the structural crate name.
func (q *QueryContext) CrateName() string { return q.crateName }

// Target returns the compilation target descriptor.
func (q *QueryContext) Target() Target { return q.target }

// GetDef returns the ConstDef for id, if any.
func (q *QueryContext) GetDef(id ast.DefId) (*ast.ConstDef, bool) {
	def, ok := q.consts[id]
	return def, ok
}

// DefIds returns every top-level DefId, in insertion order.
func (q *QueryContext) DefIds() []ast.DefId {
	out := make([]ast.DefId, len(q.defIDs))
	copy(out, q.defIDs)
	return out
}

// LookupDefId finds the DefId whose ConstDef has the given fully-qualified
// name. Implemented as a linear scan — acceptable since crates have few
// top-level names.
func (q *QueryContext) LookupDefId(name string) (ast.DefId, bool) {
	for _, id := range q.defIDs {
		if q.consts[id].Name == name {
			return id, true
		}
	}
	return ast.InvalidDefID, false
}

// MainFnId resolves the crate's entry point, "::<crate>::main".
func (q *QueryContext) MainFnId() (ast.DefId, bool) {
	return q.LookupDefId("::" + q.crateName + "::main")
}

// Provider wraps a pure function (QueryContext, Arg) -> Result with a
// read-write-locked memoisation cache, keyed by the QueryContext as well as
// the Arg since DefIds are only meaningful within one context. Arg must be
// comparable (so it can key a map); Result should be cheap to copy, since
// QueryCached hands callers a copy out of the cache.
type Provider[Arg comparable, Result any] struct {
	fn func(ctx *QueryContext, arg Arg) Result

	mu    sync.RWMutex
	cache map[cacheKey[Arg]]Result
}

type cacheKey[Arg comparable] struct {
	qc  *QueryContext
	arg Arg
}

// NewProvider wraps fn as a Provider.
func NewProvider[Arg comparable, Result any](fn func(ctx *QueryContext, arg Arg) Result) *Provider[Arg, Result] {
	return &Provider[Arg, Result]{fn: fn, cache: make(map[cacheKey[Arg]]Result)}
}

// Query always invokes the provider body on the worker pool; it never
// consults or populates the cache.
func Query[Arg comparable, Result any](qc *QueryContext, p *Provider[Arg, Result], arg Arg) Result {
	if err := qc.sem.Acquire(context.Background(), 1); err != nil {
		// The background context never cancels; Acquire can only fail here
		// if the weighted count itself is invalid, which New never produces.
		panic(err)
	}
	defer qc.sem.Release(1)
	return p.fn(qc, arg)
}

// QueryCached reads the provider's cache under a read lock; on a miss it
// computes the result via Query and stores it. A concurrent miss on the same
// arg is a benign race: both callers compute the same
// (idempotent) result, and whichever write lands first is kept.
func QueryCached[Arg comparable, Result any](qc *QueryContext, p *Provider[Arg, Result], arg Arg) Result {
	key := cacheKey[Arg]{qc: qc, arg: arg}
	p.mu.RLock()
	if v, ok := p.cache[key]; ok {
		p.mu.RUnlock()
		return v
	}
	p.mu.RUnlock()

	result := Query(qc, p, arg)

	p.mu.Lock()
	if v, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return v
	}
	p.cache[key] = result
	p.mu.Unlock()
	return result
}
