// Package typeinfo builds and caches the member inventory of Go types.
//
// A descriptor merges what reflection can enumerate (struct fields flattened
// across embedding, exported and unexported; the method set of the pointer
// type; interface method sets; native map, slice, array and string indexing;
// accessor and event conventions) with members registered explicitly for
// what it cannot: static functions and variables, constructors, unexported
// methods, extra overloads, generic methods, conversions and nested types.
//
// Registration must happen before the first lookup of a type: descriptors
// are immutable once published.
package typeinfo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/anoideaopen/limitless/core/logger"
	"github.com/anoideaopen/limitless/core/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Error types.
var (
	ErrTypeSealed   = errors.New("type descriptor already built")
	ErrTypeNotFound = errors.New("type not found")
)

// Cache maps types to their descriptors. The zero value is not usable; use
// NewCache or Default.
type Cache struct {
	mu       sync.RWMutex
	infos    map[reflect.Type]*TypeInfo
	registry map[reflect.Type][]Member
	names    map[string]reflect.Type

	log     logrus.FieldLogger
	tracing *telemetry.TracingHandler
}

// CacheOption configures a Cache.
type CacheOption func(c *Cache)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(log logrus.FieldLogger) CacheOption {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTracing sets the tracing handler recording descriptor builds.
func WithTracing(th *telemetry.TracingHandler) CacheOption {
	return func(c *Cache) {
		if th != nil {
			c.tracing = th
		}
	}
}

// NewCache returns an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		infos:    make(map[reflect.Type]*TypeInfo),
		registry: make(map[reflect.Type][]Member),
		names:    make(map[string]reflect.Type),
		log:      logger.Logger(),
		tracing:  telemetry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultCache     *Cache
	defaultCacheOnce sync.Once
)

// Default returns the process-wide cache.
func Default() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewCache()
	})
	return defaultCache
}

// Register adds members to the descriptor of t and makes t resolvable by
// name. It fails with ErrTypeSealed once the descriptor of t has been built.
func (c *Cache) Register(t reflect.Type, members ...Member) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidMember)
	}
	t = Dispatch(t)

	for _, m := range members {
		if err := m.validate(t); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.infos[t]; ok {
		return fmt.Errorf("%w: %s", ErrTypeSealed, t)
	}

	c.registry[t] = append(c.registry[t], members...)
	c.nameLocked(t.String(), t)
	if t.Name() != "" {
		c.nameLocked(t.Name(), t)
	}

	return nil
}

// MustRegister is Register panicking on error, for package initialization.
func (c *Cache) MustRegister(t reflect.Type, members ...Member) {
	if err := c.Register(t, members...); err != nil {
		panic(err)
	}
}

// RegisterName makes t resolvable as name.
func (c *Cache) RegisterName(name string, t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[name] = t
}

func (c *Cache) nameLocked(name string, t reflect.Type) {
	if _, taken := c.names[name]; !taken {
		c.names[name] = t
	}
}

var builtins = map[string]reflect.Type{
	"bool":       reflect.TypeFor[bool](),
	"string":     reflect.TypeFor[string](),
	"int":        reflect.TypeFor[int](),
	"int8":       reflect.TypeFor[int8](),
	"int16":      reflect.TypeFor[int16](),
	"int32":      reflect.TypeFor[int32](),
	"int64":      reflect.TypeFor[int64](),
	"uint":       reflect.TypeFor[uint](),
	"uint8":      reflect.TypeFor[uint8](),
	"uint16":     reflect.TypeFor[uint16](),
	"uint32":     reflect.TypeFor[uint32](),
	"uint64":     reflect.TypeFor[uint64](),
	"uintptr":    reflect.TypeFor[uintptr](),
	"float32":    reflect.TypeFor[float32](),
	"float64":    reflect.TypeFor[float64](),
	"complex64":  reflect.TypeFor[complex64](),
	"complex128": reflect.TypeFor[complex128](),
	"byte":       reflect.TypeFor[byte](),
	"rune":       reflect.TypeFor[rune](),
	"any":        reflect.TypeFor[any](),
	"error":      reflect.TypeFor[error](),
}

// TypeByName resolves a predeclared type, a registered name, or a pointer
// or slice of one written as *name or []name.
func (c *Cache) TypeByName(name string) (reflect.Type, error) {
	switch {
	case strings.HasPrefix(name, "*"):
		t, err := c.TypeByName(name[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(t), nil
	case strings.HasPrefix(name, "[]"):
		t, err := c.TypeByName(name[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(t), nil
	}

	if t, ok := builtins[name]; ok {
		return t, nil
	}

	c.mu.RLock()
	t, ok := c.names[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return t, nil
}

// Get returns the descriptor of t, building it on first use.
func (c *Cache) Get(t reflect.Type) *TypeInfo {
	t = Dispatch(t)

	c.mu.RLock()
	ti, ok := c.infos[t]
	c.mu.RUnlock()
	if ok {
		return ti
	}

	_, span := c.tracing.StartNewSpan(context.Background(), "typeinfo.build",
		trace.WithAttributes(telemetry.TypeName(t)))

	c.mu.Lock()
	if ti, ok = c.infos[t]; !ok {
		ti = c.build(t)
		c.infos[t] = ti
	}
	c.mu.Unlock()

	span.SetAttributes(telemetry.MemberCount(ti.memberCount()))
	telemetry.End(span, true)

	if !ok {
		c.log.WithFields(logrus.Fields{
			"type":    t.String(),
			"members": ti.memberCount(),
		}).Debug("type descriptor built")
	}

	return ti
}

// Built reports whether the descriptor of t has been published.
func (c *Cache) Built(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.infos[Dispatch(t)]
	return ok
}

// TryCast converts v to type to through a conversion declared on either
// side, the destination first.
func (c *Cache) TryCast(v reflect.Value, to reflect.Type) (reflect.Value, bool, error) {
	if !v.IsValid() {
		return reflect.Value{}, false, nil
	}
	from := v.Type()
	if conv, ok := c.Get(to).ConverterFrom(from); ok && conv.To == to {
		out, err := conv.Convert(v)
		return out, true, err
	}
	if conv, ok := c.Get(from).ConverterTo(to); ok && conv.From == from {
		out, err := conv.Convert(v)
		return out, true, err
	}
	return reflect.Value{}, false, nil
}

func (ti *TypeInfo) memberCount() int {
	n := len(ti.constructors) + len(ti.properties) + len(ti.fields) + len(ti.indexers) +
		len(ti.events) + len(ti.nested) + len(ti.convertsFrom) + len(ti.convertsInto)
	for _, g := range ti.methods {
		n += len(g)
	}
	return n
}
