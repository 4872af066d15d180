// Package delegates resolves the callables behind operators, conversions and
// member delegates.
//
// A Resolver returns plain func values (reflect.Value of Kind Func) so that
// callers can invoke them without further lookups. Every resolution, a miss
// included, is cached per full key: the kind, the operand types and the
// optional delegate shape.
package delegates

import (
	"context"
	"reflect"
	"sync"

	"github.com/anoideaopen/limitless/core/logger"
	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/telemetry"
	"github.com/anoideaopen/limitless/core/typeinfo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type key struct {
	kind     telemetry.ResolveKindNum
	op       operator.Kind
	name     string
	a, b, c  reflect.Type
	shape    reflect.Type
	instance bool
}

// Resolver finds or synthesizes operator functions, converters and member
// delegates. It is safe for concurrent use.
type Resolver struct {
	cache   *typeinfo.Cache
	table   operator.Table
	log     logrus.FieldLogger
	tracing *telemetry.TracingHandler

	mu       sync.RWMutex
	resolved map[key]reflect.Value
	members  map[key]*typeinfo.MethodInfo
}

// Option configures a Resolver.
type Option func(r *Resolver)

// WithTable sets the operator naming table.
func WithTable(t operator.Table) Option {
	return func(r *Resolver) {
		if t != nil {
			r.table = t
		}
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithTracing sets the tracing handler recording resolver misses.
func WithTracing(th *telemetry.TracingHandler) Option {
	return func(r *Resolver) {
		if th != nil {
			r.tracing = th
		}
	}
}

// NewResolver returns a resolver reading descriptors from cache, the default
// cache when nil.
func NewResolver(cache *typeinfo.Cache, opts ...Option) *Resolver {
	if cache == nil {
		cache = typeinfo.Default()
	}
	r := &Resolver{
		cache:    cache,
		table:    operator.DefaultTable,
		log:      logger.Logger(),
		tracing:  telemetry.Default(),
		resolved: make(map[key]reflect.Value),
		members:  make(map[key]*typeinfo.MethodInfo),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default returns the process-wide resolver over the default cache.
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver(typeinfo.Default())
	})
	return defaultResolver
}

// Cache returns the descriptor cache the resolver reads.
func (r *Resolver) Cache() *typeinfo.Cache {
	return r.cache
}

// Table returns the operator naming table.
func (r *Resolver) Table() operator.Table {
	return r.table
}

// lookup returns the cached outcome for k, running compute on a miss. The
// computation runs outside the lock; the first published outcome wins.
func (r *Resolver) lookup(k key, compute func() reflect.Value) (reflect.Value, bool) {
	r.mu.RLock()
	fn, ok := r.resolved[k]
	r.mu.RUnlock()
	if ok {
		return fn, fn.IsValid()
	}

	_, span := r.tracing.StartNewSpan(context.Background(), "delegates.resolve",
		trace.WithAttributes(
			telemetry.ResolveKind(k.kind),
			telemetry.Types(k.a, k.b, k.c),
			telemetry.Member(k.name),
		))

	fn = compute()

	r.mu.Lock()
	if prev, ok := r.resolved[k]; ok {
		fn = prev
	} else {
		r.resolved[k] = fn
	}
	r.mu.Unlock()

	telemetry.End(span, fn.IsValid())
	r.log.WithFields(logrus.Fields{
		"kind":  k.kind.String(),
		"name":  k.name,
		"types": []reflect.Type{k.a, k.b, k.c},
		"found": fn.IsValid(),
	}).Debug("delegate resolved")

	return fn, fn.IsValid()
}

// member is lookup for member delegates, which are bound to a target per call
// and so cache the descriptor rather than the func.
func (r *Resolver) member(k key, compute func() *typeinfo.MethodInfo) (*typeinfo.MethodInfo, bool) {
	r.mu.RLock()
	m, ok := r.members[k]
	r.mu.RUnlock()
	if ok {
		return m, m != nil
	}

	_, span := r.tracing.StartNewSpan(context.Background(), "delegates.resolve",
		trace.WithAttributes(
			telemetry.ResolveKind(k.kind),
			telemetry.TypeName(k.a),
			telemetry.Member(k.name),
		))

	m = compute()

	r.mu.Lock()
	if prev, ok := r.members[k]; ok {
		m = prev
	} else {
		r.members[k] = m
	}
	r.mu.Unlock()

	telemetry.End(span, m != nil)

	return m, m != nil
}
