package core

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/delegates"
	"github.com/anoideaopen/limitless/core/logger"
	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/telemetry"
	"github.com/anoideaopen/limitless/core/typeinfo"
	"github.com/anoideaopen/limitless/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Engine ties a type descriptor cache to an operator and converter resolver
// and hands out proxies over them. The zero value is not usable; create
// engines with NewEngine or use the process-wide Default.
type Engine struct {
	id       string
	cache    *typeinfo.Cache
	resolver *delegates.Resolver
	log      logrus.FieldLogger
	tracing  *telemetry.TracingHandler
	handlers handlerTable
}

// EngineOption represents a function that applies configuration options to
// an engineOptions object.
//
// opts: A pointer to an engineOptions object that the function will modify.
//
// error: The function returns an error if applying the option fails.
type EngineOption func(opts *engineOptions) error

// engineOptions is a structure that holds the collaborators of an Engine.
// Unset fields fall back to the process-wide defaults.
type engineOptions struct {
	Cache          *typeinfo.Cache
	Resolver       *delegates.Resolver
	Logger         logrus.FieldLogger
	TracerProvider trace.TracerProvider
	Table          operator.Table
}

// WithCache is an EngineOption that specifies the type descriptor cache.
//
// cache: The cache holding the registered members. Types are registered on this
// cache before the engine first touches them.
//
// It returns an EngineOption that sets the Cache field in the engineOptions.
func WithCache(cache *typeinfo.Cache) EngineOption {
	return func(o *engineOptions) error {
		if cache == nil {
			return errors.New("cache is nil")
		}
		o.Cache = cache
		return nil
	}
}

// WithResolver is an EngineOption that specifies the operator and converter
// resolver. The resolver must be built over the cache of the engine.
func WithResolver(r *delegates.Resolver) EngineOption {
	return func(o *engineOptions) error {
		if r == nil {
			return errors.New("resolver is nil")
		}
		o.Resolver = r
		return nil
	}
}

// WithLogger is an EngineOption that specifies the logger of the engine and of
// the resolver it builds.
func WithLogger(log logrus.FieldLogger) EngineOption {
	return func(o *engineOptions) error {
		if log == nil {
			return errors.New("logger is nil")
		}
		o.Logger = log
		return nil
	}
}

// WithTracer is an EngineOption that specifies the tracer provider used for
// engine and resolver spans.
func WithTracer(tp trace.TracerProvider) EngineOption {
	return func(o *engineOptions) error {
		o.TracerProvider = tp
		return nil
	}
}

// WithOperatorTable is an EngineOption that specifies the names operators are
// looked up by. It cannot be combined with WithResolver.
func WithOperatorTable(t operator.Table) EngineOption {
	return func(o *engineOptions) error {
		if len(t) == 0 {
			return errors.New("operator table is empty")
		}
		o.Table = t
		return nil
	}
}

// NewEngine creates an engine configured by opts.
//
// Without options the engine shares the default cache and resolver with the
// package-level functions. A logger, tracer or operator table given without a
// resolver makes the engine build its own resolver over its cache.
//
// Example:
//
//	cache := typeinfo.NewCache()
//	cache.MustRegister(reflect.TypeFor[Account](), typeinfo.Constructor(newAccount))
//	engine, err := core.NewEngine(core.WithCache(cache))
func NewEngine(opts ...EngineOption) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	if o.Resolver != nil && o.Table != nil {
		return nil, errors.New("operator table cannot be combined with a resolver")
	}
	if o.Resolver != nil && o.Cache != nil && o.Resolver.Cache() != o.Cache {
		return nil, errors.New("resolver is built over another cache")
	}

	e := &Engine{id: uuid.NewString()}

	log := o.Logger
	if log == nil {
		log = logger.Logger()
	}
	e.log = log.WithField("engine", e.id)
	e.tracing = telemetry.NewTracingHandler(o.TracerProvider)

	switch {
	case o.Resolver != nil:
		e.resolver = o.Resolver
		e.cache = o.Resolver.Cache()
	default:
		e.cache = o.Cache
		if e.cache == nil {
			e.cache = typeinfo.Default()
		}
		e.resolver = e.newResolver(o)
	}

	e.log.WithField("version", version.Module()).Debug("engine created")
	return e, nil
}

func (e *Engine) newResolver(o engineOptions) *delegates.Resolver {
	if o.Logger == nil && o.TracerProvider == nil && o.Table == nil && e.cache == typeinfo.Default() {
		return delegates.Default()
	}

	ropts := []delegates.Option{
		delegates.WithLogger(e.log),
		delegates.WithTracing(e.tracing),
	}
	if o.Table != nil {
		ropts = append(ropts, delegates.WithTable(o.Table))
	}
	return delegates.NewResolver(e.cache, ropts...)
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the engine used by the package-level functions.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = &Engine{
			id:       uuid.NewString(),
			cache:    typeinfo.Default(),
			resolver: delegates.Default(),
			tracing:  telemetry.Default(),
		}
		defaultEngine.log = logger.Logger().WithField("engine", defaultEngine.id)
	})
	return defaultEngine
}

// ID returns the identifier the engine tags its logs and spans with.
func (e *Engine) ID() string {
	return e.id
}

// Cache returns the type descriptor cache of the engine.
func (e *Engine) Cache() *typeinfo.Cache {
	return e.cache
}

// Resolver returns the operator and converter resolver of the engine.
func (e *Engine) Resolver() *delegates.Resolver {
	return e.resolver
}

// Static returns a proxy over the static members of t.
func (e *Engine) Static(t reflect.Type) (*Limitless, error) {
	if t == nil {
		return nil, ErrNilType
	}
	return e.proxy(reflect.Value{}, t), nil
}

// StaticByName returns a proxy over the static members of the type
// registered under name.
func (e *Engine) StaticByName(name string) (*Limitless, error) {
	t, err := e.cache.TypeByName(name)
	if err != nil {
		return nil, err
	}
	return e.Static(t)
}

// StaticOf returns a proxy over the static members of the type of source.
func (e *Engine) StaticOf(source *Limitless) (*Limitless, error) {
	if source == nil {
		return nil, ErrNilType
	}
	return e.Static(source.typ)
}

// Wrap returns a proxy over obj. A proxy is returned as is, nil yields nil.
func (e *Engine) Wrap(obj any) *Limitless {
	switch x := obj.(type) {
	case nil:
		return nil
	case *Limitless:
		return x
	case reflect.Value:
		if !x.IsValid() {
			return nil
		}
		return e.proxy(x, nil)
	}
	return e.proxy(reflect.ValueOf(obj), nil)
}

// WrapAs returns a proxy over obj narrowed, or widened, to t. Proxies are
// unwrapped first. The types must be assignable in either direction, or t
// must declare a conversion from the type of obj; the converted value then
// becomes the target.
func (e *Engine) WrapAs(obj any, t reflect.Type) (*Limitless, error) {
	if t == nil {
		return e.Wrap(obj), nil
	}

	v, vt := binder.Underlying(obj)
	if !v.IsValid() {
		if vt == nil {
			return nil, nil
		}
		if vt.AssignableTo(t) || t.AssignableTo(vt) {
			return e.proxy(reflect.Value{}, t), nil
		}
		return nil, newMemberError(ErrTypeMismatch, t, vt.String(), nil)
	}

	switch {
	case vt.AssignableTo(t), t.AssignableTo(vt):
		return e.proxy(v, t), nil
	case vt.Kind() == reflect.Pointer && vt.Elem() == t:
		if v.IsNil() {
			return nil, newMemberError(ErrTypeMismatch, t, vt.String(), nil)
		}
		return e.proxy(v, t), nil
	case t.Kind() == reflect.Pointer && t.Elem() == vt:
		return e.proxy(reflectx.Addressable(v).Addr(), t), nil
	}

	out, ok, err := e.cache.TryCast(v, t)
	if !ok {
		return nil, newMemberError(ErrTypeMismatch, t, vt.String(), nil)
	}
	if err != nil {
		return nil, newMemberError(ErrConversionFailed, t, vt.String(), err)
	}
	return e.proxy(out, t), nil
}

// WrapAsName is WrapAs with the type registered under name.
func (e *Engine) WrapAsName(obj any, name string) (*Limitless, error) {
	t, err := e.cache.TypeByName(name)
	if err != nil {
		return nil, err
	}
	return e.WrapAs(obj, t)
}

// Construct creates an instance of t with the best matching constructor and
// returns a proxy over it. Coerced arguments are written back into args.
func (e *Engine) Construct(t reflect.Type, args ...any) (*Limitless, error) {
	if t == nil {
		return nil, ErrNilType
	}

	_, span := e.tracing.StartNewSpan(context.Background(), "limitless.construct",
		trace.WithAttributes(telemetry.EngineID(e.id), telemetry.TypeName(t)),
	)

	v, values, err := e.cache.Get(t).Construct(args, binder.CallInfo{})
	telemetry.End(span, err == nil)
	if err != nil {
		return nil, err
	}

	e.writeBack(args, values)
	return e.proxy(v, nil), nil
}

// ConstructByName is Construct with the type registered under name.
func (e *Engine) ConstructByName(name string, args ...any) (*Limitless, error) {
	t, err := e.cache.TypeByName(name)
	if err != nil {
		return nil, err
	}
	return e.Construct(t, args...)
}

// Static returns a proxy over the static members of t, using the default
// engine.
func Static(t reflect.Type) (*Limitless, error) {
	return Default().Static(t)
}

// StaticByName returns a proxy over the static members of the type
// registered under name, using the default engine.
func StaticByName(name string) (*Limitless, error) {
	return Default().StaticByName(name)
}

// StaticOf returns a proxy over the static members of the type of source,
// using the default engine.
func StaticOf(source *Limitless) (*Limitless, error) {
	return Default().StaticOf(source)
}

// Wrap returns a proxy over obj, using the default engine.
func Wrap(obj any) *Limitless {
	return Default().Wrap(obj)
}

// WrapAs returns a proxy over obj narrowed to t, using the default engine.
func WrapAs(obj any, t reflect.Type) (*Limitless, error) {
	return Default().WrapAs(obj, t)
}

// WrapAsName returns a proxy over obj narrowed to the type registered under
// name, using the default engine.
func WrapAsName(obj any, name string) (*Limitless, error) {
	return Default().WrapAsName(obj, name)
}

// Construct creates an instance of t, using the default engine.
func Construct(t reflect.Type, args ...any) (*Limitless, error) {
	return Default().Construct(t, args...)
}

// ConstructByName creates an instance of the type registered under name,
// using the default engine.
func ConstructByName(name string, args ...any) (*Limitless, error) {
	return Default().ConstructByName(name, args...)
}
