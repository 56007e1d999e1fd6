// Package scope implements the reactive scope tree and digest scheduler:
// watcher registration with delegate strategies, the fixed-point digest
// loop, the cooperative async queues, and the event bus.
package scope

import (
	"github.com/google/uuid"

	"github.com/pumped-fn/reaxpr/ast"
	"github.com/pumped-fn/reaxpr/compiler"
	"github.com/pumped-fn/reaxpr/filter"
	"github.com/pumped-fn/reaxpr/internal/sink"
	"github.com/pumped-fn/reaxpr/value"
)

// Phase names one of the three mutually-exclusive states a root scope can
// be in.
type Phase string

const (
	PhaseNone   Phase = ""
	PhaseDigest Phase = "digest"
	PhaseApply  Phase = "apply"
)

const defaultTTL = 10

// Scope is a node in the reactive context tree. Every field that is
// meaningful only at the root (asyncQueue, applyAsyncQueue, postDigestQueue,
// phase, lastDirtyWatch, applyAsyncPending) lives on root's struct value
// and is always accessed through s.root, so the queues are shared by
// reference across the whole tree without a separate indirection type.
type Scope struct {
	id uuid.UUID

	root     *Scope
	parent   *Scope
	proto    *Scope // attribute-inheritance parent; nil for the root
	isolated bool
	children []*Scope
	attrs    value.Value

	watchers    []*watcher
	needCompact bool

	listenerSlots map[string][]*eventListenerSlot

	destroyed bool

	// root-only
	asyncQueue        []asyncTask
	applyAsyncQueue   []applyAsyncTask
	postDigestQueue   []func()
	phase             Phase
	lastDirtyWatch    *watcher
	applyAsyncPending bool

	filters   compiler.FilterLookup
	stateful  ast.StatefulFilter
	sinkImpl  sink.Sink
	scheduler Scheduler
	ttl       int
}

type asyncTask struct {
	scope *Scope
	fn    func(*Scope) error
}

type applyAsyncTask struct {
	scope *Scope
	fn    func(*Scope) error
}

// Scheduler is how a root scope requests the host's nearest deferred
// task. Go has no implicit microtask queue, so this is an explicit seam:
// the default runs fn synchronously, appropriate for a caller driving its
// own loop (the REPL, tests); an application embedding a real event loop
// supplies one backed by time.AfterFunc or a channel via WithScheduler.
type Scheduler func(fn func())

func immediateScheduler(fn func()) { fn() }

// Option configures a root Scope at construction.
type Option func(*Scope)

// WithTTL overrides the digest fixed-point guard's round budget
// (default 10).
func WithTTL(n int) Option {
	return func(s *Scope) { s.ttl = n }
}

// WithErrorSink installs the sink every caught error and digest TTL warning
// is routed through.
func WithErrorSink(sk sink.Sink) Option {
	return func(s *Scope) { s.sinkImpl = sk }
}

// WithScheduler overrides how a root schedules its deferred digest/apply
// flush.
func WithScheduler(sc Scheduler) Option {
	return func(s *Scope) { s.scheduler = sc }
}

// WithFilters installs the filter registry lookup the compiler consults.
// Without it, expressions using `| name` filters fail with
// ErrUnknownFilter at evaluation time.
func WithFilters(reg *filter.Registry) Option {
	return func(s *Scope) {
		s.filters = reg.Lookup
		s.stateful = reg.Stateful
	}
}

// New creates a root scope.
func New(opts ...Option) *Scope {
	s := &Scope{
		id:            uuid.New(),
		attrs:         value.NewMapping(),
		listenerSlots: make(map[string][]*eventListenerSlot),
		ttl:           defaultTTL,
		sinkImpl:      sink.NewSlog(nil),
		scheduler:     immediateScheduler,
	}
	s.root = s
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the scope's identity, stamped for diagnostics (DumpTree,
// the Slog sink).
func (s *Scope) ID() uuid.UUID { return s.id }

// Root returns the tree's root scope: every child shares its parent's
// root, and the root is its own.
func (s *Scope) Root() *Scope { return s.root }

// Parent returns the parent scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Isolated reports whether this scope was created with isolate=true.
func (s *Scope) Isolated() bool { return s.isolated }

// New creates a child scope of s, isolated from attribute inheritance
// when isolate is true.
func (s *Scope) New(isolate bool) *Scope {
	return s.NewWithParent(isolate, s)
}

// NewWithParent creates a child that inherits attributes from s but is
// attached to parent's subtree: parent is who digests it, receives its
// emitted events, and detaches it on Destroy. A nil parent means s.
func (s *Scope) NewWithParent(isolate bool, parent *Scope) *Scope {
	if parent == nil {
		parent = s
	}
	child := &Scope{
		id:            uuid.New(),
		root:          s.root,
		parent:        parent,
		proto:         s,
		isolated:      isolate,
		attrs:         value.NewMapping(),
		listenerSlots: make(map[string][]*eventListenerSlot),
	}
	parent.children = append(parent.children, child)
	return child
}

// ScopeValue implements compiler.Context: this scope's own attribute
// mapping.
func (s *Scope) ScopeValue() value.Value { return s.attrs }

// ScopeParent implements compiler.Context: the inheritance-chain parent,
// or ok=false for an isolated scope or the root. The inheritance chain
// follows the scope the child was created from, which is the tree parent
// except for children made with NewWithParent.
func (s *Scope) ScopeParent() (compiler.Context, bool) {
	if s.isolated || s.proto == nil {
		return nil, false
	}
	return s.proto, true
}

var _ compiler.Context = (*Scope)(nil)

// Get reads an attribute off this scope's own mapping, without walking the
// inheritance chain (for host code wiring up a context before Watch/Eval
// run expressions against it).
func (s *Scope) Get(name string) (value.Value, bool) { return s.attrs.Get(name) }

// Set writes an attribute on this scope's own mapping.
func (s *Scope) Set(name string, v value.Value) { s.attrs.Set(name, v) }

// Destroy removes the scope from the tree: broadcasts "$destroy",
// detaches from its parent's child list, and clears its own watchers and
// listeners. The root is indestructible.
func (s *Scope) Destroy() {
	if s.parent == nil {
		return
	}
	if s.destroyed {
		return
	}
	s.Broadcast("$destroy")
	if p := s.parent; p != nil {
		for i, c := range p.children {
			if c == s {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	s.watchers = nil
	s.listenerSlots = make(map[string][]*eventListenerSlot)
	s.destroyed = true
}

// Eval compiles and evaluates source once against this scope.
func (s *Scope) Eval(source string, locals value.Value) (value.Value, error) {
	compiled, err := compiler.Compile(source, s.root.filters, s.root.stateful)
	if err != nil {
		return value.Null, err
	}
	if locals.Kind() != value.KindMapping {
		locals = value.Null
	}
	return compiled.Eval(s, locals)
}
