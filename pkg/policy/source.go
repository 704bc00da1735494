package policy

// Source looks up raw configuration values by key.
type Source interface {
	Lookup(key string) (any, bool)
}

// MapSource serves values from a map, typically the policy section of the
// YAML configuration.
type MapSource map[string]any

// Lookup implements Source.
func (m MapSource) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// SourceFunc adapts a function to Source.
type SourceFunc func(key string) (any, bool)

// Lookup implements Source.
func (f SourceFunc) Lookup(key string) (any, bool) {
	return f(key)
}

// Layered returns a Source that consults sources in order and returns the
// first hit. Nil sources are skipped.
func Layered(sources ...Source) Source {
	return SourceFunc(func(key string) (any, bool) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			if v, ok := s.Lookup(key); ok {
				return v, true
			}
		}
		return nil, false
	})
}
