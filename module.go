package multibind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gburgyan/go-timing"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

type TimingMode int

const (
	// TimingDisable will disable timing for all configuration passes.
	TimingDisable TimingMode = iota

	// TimingApply will start a timing context around each module's Apply.
	TimingApply

	// TimingBindings will additionally start a timing context for each
	// binding that is registered. This is useful to see where configuration
	// time is being spent in modules with many providers.
	TimingBindings
)

var EnableTiming = TimingDisable

// Container is the subset of the host framework's API this package needs.
// Both *dig.Container and *dig.Scope implement it.
type Container interface {
	Provide(constructor interface{}, opts ...dig.ProvideOption) error
	Invoke(function interface{}, opts ...dig.InvokeOption) error
}

// ModuleOption is a functional option for configuring a Module.
type ModuleOption func(*Module)

// WithLogger installs a logger that records each registration made during
// the configuration pass at debug level.
func WithLogger(logger *zap.Logger) ModuleOption {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithScanner replaces the shared DefaultScanner for this module. This is
// mostly useful for tests that observe scanner behavior in isolation.
func WithScanner(scanner *Scanner) ModuleOption {
	return func(m *Module) {
		m.scanner = scanner
	}
}

// Module is an ordered collection of aggregate bindings that is applied to a
// host container in a single configuration pass. Applying a module scans
// every binding through the scanner, registers the rewritten providers with
// dig, and finally registers one collector per aggregate so the set, map and
// optional values can be resolved like any other dependency.
//
// Aggregate collectors are registered once per pass, so all contributions to
// the same set, map or optional binding must be applied together; use
// Combine to merge modules that share an aggregate.
type Module struct {
	name     string
	bindings []*Binding
	logger   *zap.Logger
	scanner  *Scanner
}

// NewModule creates a module from a mix of options and bindings, in any
// order. Options are applied first, then bindings are added. Any other
// argument type panics.
func NewModule(name string, args ...any) *Module {
	m := &Module{
		name:    name,
		scanner: DefaultScanner,
	}

	var bindings []*Binding
	for _, arg := range args {
		switch v := arg.(type) {
		case ModuleOption:
			v(m)
		case *Binding:
			bindings = append(bindings, v)
		default:
			panic(fmt.Sprintf("NewModule argument must be a ModuleOption or *Binding, got %T", arg))
		}
	}
	m.bindings = bindings

	return m
}

// Combine flattens several modules into one so their contributions share a
// single configuration pass. The combined module uses its own options, not
// those of the source modules.
func Combine(name string, modules ...*Module) *Module {
	combined := &Module{
		name:    name,
		scanner: DefaultScanner,
	}
	for _, m := range modules {
		combined.bindings = append(combined.bindings, m.bindings...)
	}
	return combined
}

// Apply runs the configuration pass against the container. The pass is
// synchronous and single-threaded; the scanner holds no state between
// bindings, so the same module can be applied to several containers.
func (m *Module) Apply(c Container) error {
	return m.ApplyContext(context.Background(), c)
}

// ApplyContext behaves like Apply. When EnableTiming is set, the pass runs
// under a timing context parented to ctx.
func (m *Module) ApplyContext(ctx context.Context, c Container) error {
	if EnableTiming != TimingDisable {
		tCtx, complete := timing.Start(ctx, "multibind:"+m.name)
		defer complete()
		ctx = tCtx
	}

	pass := NewPass()
	for _, binding := range m.bindings {
		if err := m.applyBinding(ctx, c, pass, binding); err != nil {
			return err
		}
	}

	if err := pass.flush(c); err != nil {
		return err
	}
	m.logAggregates(pass)
	return nil
}

func (m *Module) applyBinding(ctx context.Context, c Container, pass *Pass, binding *Binding) error {
	key := m.scanner.ProvideKey(pass, binding.trigger, Key{Type: binding.valueType}, binding)

	if EnableTiming == TimingBindings {
		_, complete := timing.Start(ctx, key.String())
		defer complete()
	}

	if err := m.register(c, pass, binding, key); err != nil {
		return &BindingError{Message: "registering provider", ReferencedType: key.Type, SourceError: err}
	}

	if m.logger != nil {
		m.logger.Debug("registered provider",
			zap.String("module", m.name),
			zap.Stringer("key", key))
	}
	return nil
}

// logAggregates records a per-aggregate summary once the collectors are in
// place, so the debug log shows how many contributions each set and map
// gathered during the pass.
func (m *Module) logAggregates(pass *Pass) {
	if m.logger == nil {
		return
	}
	for _, b := range pass.setBinders {
		m.logger.Debug("assembled set binding",
			zap.String("module", m.name),
			zap.Stringer("type", b.value),
			zap.Int("elements", b.elements))
	}
	for _, b := range pass.mapBinders {
		m.logger.Debug("assembled map binding",
			zap.String("module", m.name),
			zap.Stringer("type", b.valueType),
			zap.Int("entries", len(b.entries)))
	}
}

// register completes the registration the scanner prepared. The switch is
// exhaustive over the contribution kinds; ProvideKey has already rejected
// anything else.
func (m *Module) register(c Container, pass *Pass, binding *Binding, key Key) error {
	switch binding.trigger.(type) {
	case SetContribution:
		mustProvide(binding.ctor, key.Type)
		return c.Provide(binding.ctor, dig.Group(key.Group))

	case MapContribution:
		if !key.qualified() {
			// No usable map key was found: register the constructor as-is
			// and let the host framework decide what to make of it.
			return c.Provide(binding.ctor)
		}
		binder, resolved, ok := pass.entryFor(binding)
		if !ok {
			// We should never get here: the scanner records the entry when
			// it rewrites the key.
			panic("map binding key was rewritten without a recorded entry")
		}
		return c.Provide(binder.wrapConstructor(binding.ctor, resolved), dig.Group(key.Group))

	case OptionalContribution:
		mustProvide(binding.ctor, key.Type)
		return c.Provide(binding.ctor, dig.Name(key.Name))

	default:
		panic(fmt.Sprintf("annotation %T is not a registered contribution kind", binding.trigger))
	}
}

// mustProvide double-checks that ctor actually yields the declared value
// type. dig would accept a mismatched constructor and the aggregate would
// silently come up short, so this is checked eagerly.
func mustProvide(ctor any, value reflect.Type) {
	t := reflect.TypeOf(ctor)
	if t == nil || t.Kind() != reflect.Func {
		panic(fmt.Sprintf("contribution constructor must be a function, got %v", t))
	}
	for i := 0; i < t.NumOut(); i++ {
		if t.Out(i) == value {
			return
		}
	}
	panic(fmt.Sprintf("contribution constructor %v has no %v result", t, value))
}
