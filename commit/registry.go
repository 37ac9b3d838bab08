package commit

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/ridge/chamber/tlog"
	"go.uber.org/zap"
)

// Connection is the view of a host database connection needed to decide
// what to do with callables registered outside of any scope
type Connection interface {
	Alias() string
	InAtomicBlock() bool
}

// ScopeMisuseError is returned when a callable is registered inside an atomic
// block of a connection that has no open scope
type ScopeMisuseError struct {
	Alias string
}

func (e ScopeMisuseError) Error() string {
	return fmt.Sprintf("connection %q is in an atomic block without a commit scope", e.Alias)
}

// Registry owns the scope stacks of all connections, keyed by alias.
//
// Stacks of different connections are independent and may be used from
// different goroutines. One stack must not be used concurrently.
type Registry struct {
	debug bool

	mu     sync.Mutex
	stacks map[string]*Stack
}

// NewRegistry creates a registry. In debug mode callables run eagerly
// outside of any scope are logged as warnings.
func NewRegistry(debug bool) *Registry {
	return &Registry{debug: debug, stacks: map[string]*Stack{}}
}

// Stack returns the scope stack of a connection, nil if no scope is open
func (r *Registry) Stack(alias string) *Stack {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stacks[alias]
}

// Depth returns the number of open scopes of a connection
func (r *Registry) Depth(alias string) int {
	if stack := r.Stack(alias); stack != nil {
		return stack.Depth()
	}
	return 0
}

// Enter opens a new innermost scope for a connection
func (r *Registry) Enter(ctx context.Context, alias string) *Scope {
	r.mu.Lock()
	stack := r.stacks[alias]
	if stack == nil {
		stack = &Stack{}
		r.stacks[alias] = stack
	}
	r.mu.Unlock()

	scope := &Scope{}
	stack.scopes = append(stack.scopes, scope)
	tlog.Get(ctx).Debug("Commit scope entered", zap.String("alias", alias), zap.Int("depth", stack.Depth()))
	return scope
}

// Exit closes the innermost scope of a connection.
//
// A failed scope drops its callables. A nested successful scope moves them to
// its parent, joining unique ones by identity. The outermost successful scope
// runs them in registration order, pre-commit ones first, and returns the
// first error, leaving the rest unrun.
func (r *Registry) Exit(ctx context.Context, alias string, failed bool) error {
	r.mu.Lock()
	stack := r.stacks[alias]
	if stack == nil || stack.Depth() == 0 {
		r.mu.Unlock()
		panic(fmt.Sprintf("no commit scope to exit for connection %q", alias))
	}
	scope := stack.top()
	stack.scopes = stack.scopes[:len(stack.scopes)-1]
	outermost := stack.Depth() == 0
	if outermost {
		delete(r.stacks, alias)
	}
	r.mu.Unlock()

	logger := tlog.Get(ctx).With(zap.String("alias", alias), zap.Int("depth", stack.Depth()+1))
	switch {
	case failed:
		scope.state = Discarded
		logger.Debug("Commit scope discarded", zap.Int("callables", scope.Len()))
		scope.onSuccess.take()
		scope.preCommit.take()
		return nil
	case !outermost:
		scope.state = Joined
		parent := stack.top()
		parent.onSuccess.merge(&scope.onSuccess)
		parent.preCommit.merge(&scope.preCommit)
		logger.Debug("Commit scope joined to parent", zap.Int("callables", scope.Len()))
		return nil
	default:
		scope.state = Committed
		logger.Debug("Commit scope committed", zap.Int("callables", scope.Len()))
		if err := runAll(ctx, scope.preCommit.take()); err != nil {
			return err
		}
		return runAll(committed{Context: ctx}, scope.onSuccess.take())
	}
}

// Do runs fn inside a new scope of the connection. The scope fails when fn
// returns an error or panics; the panic propagates after the scope is closed.
func (r *Registry) Do(ctx context.Context, alias string, fn func(ctx context.Context) error) error {
	r.Enter(ctx, alias)
	closed := false
	defer func() {
		if !closed {
			_ = r.Exit(ctx, alias, true)
		}
	}()

	err := fn(ctx)
	closed = true
	if exitErr := r.Exit(ctx, alias, err != nil); err == nil {
		err = exitErr
	}
	return err
}

// OnSuccess registers a callable to run after the outermost scope of the
// connection commits.
//
// Outside of any scope the callable runs right away, unless the connection is
// in an atomic block: then ScopeMisuseError is returned.
func (r *Registry) OnSuccess(ctx context.Context, conn Connection, c Callable) error {
	return r.register(ctx, conn, c, func(s *Scope) *queue { return &s.onSuccess })
}

// PreCommit registers a callable to run inside the outermost transaction
// right before it commits. Placement rules are the same as for OnSuccess.
func (r *Registry) PreCommit(ctx context.Context, conn Connection, c Callable) error {
	return r.register(ctx, conn, c, func(s *Scope) *queue { return &s.preCommit })
}

func (r *Registry) register(ctx context.Context, conn Connection, c Callable, pick func(s *Scope) *queue) error {
	if u, ok := c.(Unique); ok {
		if key := u.UniqueKey(); key != nil && !reflect.TypeOf(key).Comparable() {
			return fmt.Errorf("unique key of %T: %T is not comparable", u, key)
		}
	}
	alias := conn.Alias()
	if stack := r.Stack(alias); stack != nil && stack.Depth() > 0 {
		pick(stack.top()).add(c)
		return nil
	}
	if conn.InAtomicBlock() {
		return ScopeMisuseError{Alias: alias}
	}
	if r.debug {
		tlog.Get(ctx).Warn("Deferred callable run outside of a commit scope", zap.String("alias", alias))
	}
	return c.Run(ctx)
}

// RunPreCommit runs the pre-commit callables of the innermost scope of the
// connection, including those they register in turn
func (r *Registry) RunPreCommit(ctx context.Context, alias string) error {
	stack := r.Stack(alias)
	if stack == nil || stack.Depth() == 0 {
		return nil
	}
	scope := stack.top()
	for {
		items := scope.preCommit.take()
		if len(items) == 0 {
			return nil
		}
		if err := runAll(ctx, items); err != nil {
			return err
		}
	}
}

func runAll(ctx context.Context, items []Callable) error {
	for _, c := range items {
		if err := c.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
