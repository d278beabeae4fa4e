package multibind

import "fmt"

// Scanner classifies annotated bindings and rewrites their binding keys so
// the host framework registers each provider under the right aggregate. A
// scanner is stateless: all per-call data arrives as arguments and leaves as
// results, so a single shared instance is safe to pass into any number of
// configuration passes.
type Scanner struct{}

// NewScanner creates a scanner. Most callers can use DefaultScanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// DefaultScanner is the shared scanner used by modules that don't install
// their own with WithScanner.
var DefaultScanner = NewScanner()

// ProvideKey inspects the annotation that triggered scanning and returns the
// key the host framework should register the binding under.
//
// Set contributions receive a fresh element key from the pass's set binder
// for the value type. Map contributions first resolve a map key from the
// binding's annotations; with no single unambiguous map-key annotation the
// original key is returned untouched and no aggregate registration happens.
// Optional contributions receive the default or actual key from the optional
// binder depending on the annotation's discriminator.
//
// Calling ProvideKey with an annotation that is not one of the three
// contribution kinds is a programming error and panics.
func (s *Scanner) ProvideKey(pass *Pass, annotation Annotation, key Key, binding *Binding) Key {
	switch ann := annotation.(type) {
	case SetContribution:
		return pass.setBinder(key.Type).elementKey()

	case MapContribution:
		resolved, ok := resolveMapKey(binding.annotations)
		if !ok {
			// No usable map key. Leave the key untouched and let the host
			// framework's own validation deal with the binding.
			return key
		}
		return pass.mapBinder(resolved.keyType, key.Type).entryKey(binding, resolved)

	case OptionalContribution:
		binder := pass.optionalBinder(key.Type)
		switch ann.Kind {
		case Default:
			return binder.defaultKey()
		case Actual:
			return binder.actualKey()
		default:
			panic(fmt.Sprintf("invalid optional contribution kind: %d", ann.Kind))
		}

	default:
		panic(fmt.Sprintf("annotation %T is not a registered contribution kind", annotation))
	}
}
