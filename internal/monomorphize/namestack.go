package monomorphize

// nameStack is the bare name-presence scope stack the reachability walk
// needs (no types, unlike internal/analyzer's symbolTable, since this pass
// only asks "is this name local or does it resolve to a top-level
// definition"). Mirrors internal/simplifier's globals/locals two-stage
// push: prePush buffers a name (a function parameter, a `for` loop
// variable) until the next push, so it lands in that block's own first
// scope rather than the enclosing one.
type nameStack struct {
	scopes    []map[string]bool
	prePushed map[string]bool
}

func newNameStack() *nameStack {
	return &nameStack{prePushed: map[string]bool{}}
}

func (s *nameStack) push() {
	scope := make(map[string]bool, len(s.prePushed))
	for name := range s.prePushed {
		scope[name] = true
	}
	s.prePushed = map[string]bool{}
	s.scopes = append(s.scopes, scope)
}

func (s *nameStack) pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// prePush buffers name for the next push.
func (s *nameStack) prePush(name string) {
	s.prePushed[name] = true
}

// bind adds name directly to the current (already pushed) innermost scope,
// for a `let` binding that must be visible to later items in the same
// block without waiting for another push.
func (s *nameStack) bind(name string) {
	s.scopes[len(s.scopes)-1][name] = true
}

func (s *nameStack) contains(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i][name] {
			return true
		}
	}
	return false
}
