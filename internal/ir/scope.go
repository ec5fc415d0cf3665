package ir

// Scope is a simple nested-environment map from name to a value of
// type T, implemented as a stack of bindings per name so that
// shadowing unwinds correctly when an inner binding goes out of
// scope. It mirrors the small scope type the loop-carry pass needs
// from its host compiler: linear deltas keyed by variable name, and
// (via ScopeSet) producer names currently being consumed.
type Scope[T any] struct {
	stack map[string][]T
}

// NewScope creates an empty scope.
func NewScope[T any]() *Scope[T] {
	return &Scope[T]{stack: make(map[string][]T)}
}

// Push binds name to value, shadowing any existing binding.
func (s *Scope[T]) Push(name string, value T) {
	s.stack[name] = append(s.stack[name], value)
}

// Pop removes the innermost binding for name.
func (s *Scope[T]) Pop(name string) {
	bindings := s.stack[name]
	if len(bindings) == 0 {
		return
	}
	bindings = bindings[:len(bindings)-1]
	if len(bindings) == 0 {
		delete(s.stack, name)
	} else {
		s.stack[name] = bindings
	}
}

// Contains reports whether name is currently bound.
func (s *Scope[T]) Contains(name string) bool {
	return len(s.stack[name]) > 0
}

// Get returns the innermost binding for name. The caller must check
// Contains first; Get of an unbound name returns the zero value.
func (s *Scope[T]) Get(name string) T {
	bindings := s.stack[name]
	if len(bindings) == 0 {
		var zero T
		return zero
	}
	return bindings[len(bindings)-1]
}

// ScopedBinding pushes a binding on construction and pops it when
// Pop is called, so a defer at the call site can never forget to
// unwind the scope.
type ScopedBinding[T any] struct {
	scope *Scope[T]
	name  string
}

// Bind pushes name->value onto scope and returns a handle that must
// be popped (typically via defer) when the binding goes out of scope.
func Bind[T any](scope *Scope[T], name string, value T) *ScopedBinding[T] {
	scope.Push(name, value)
	return &ScopedBinding[T]{scope: scope, name: name}
}

func (b *ScopedBinding[T]) Pop() {
	b.scope.Pop(b.name)
}

// ScopeSet is a Scope specialized to membership only (no payload),
// used for the consume scope (producer names currently safe to read).
type ScopeSet = Scope[struct{}]

// NewScopeSet creates an empty membership scope.
func NewScopeSet() *ScopeSet { return NewScope[struct{}]() }

// BindSet marks name as a member of scope until the binding is popped.
func BindSet(scope *ScopeSet, name string) *ScopedBinding[struct{}] {
	return Bind(scope, name, struct{}{})
}
