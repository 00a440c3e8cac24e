package partition

import (
	"strings"

	pkgerrors "partdocs/pkg/errors"
)

// Key is an ordered partition key. A single-component key addresses a
// scalar-partitioned container; multiple components form a hierarchical key.
type Key struct {
	components []Value
}

// NewKey builds a key from ordered components
func NewKey(components ...Value) Key {
	return Key{components: components}
}

// KeyFromStrings builds a string-typed key from decoded identifier
// components. This is the read/delete path form, where no entity is
// available to supply richer types.
func KeyFromStrings(components []string) Key {
	values := make([]Value, len(components))
	for i, c := range components {
		values[i] = String(c)
	}
	return Key{components: values}
}

// Components returns the ordered components
func (k Key) Components() []Value {
	return k.components
}

// Len returns the number of components
func (k Key) Len() int {
	return len(k.components)
}

// IsScalar reports whether the key collapses to a single scalar
func (k Key) IsScalar() bool {
	return len(k.components) == 1
}

// Canonical returns the ordered canonical text forms of the components
func (k Key) Canonical() []string {
	out := make([]string, len(k.components))
	for i, c := range k.components {
		out[i] = c.Canonical()
	}
	return out
}

// String returns the canonical joined form, used as the physical partition
// attribute value. Ordering is preserved so hierarchical keys route the same
// way they were written.
func (k Key) String() string {
	return strings.Join(k.Canonical(), "|")
}

// FieldProvider exposes an entity's partition key properties as tagged
// scalars. Implementing it is a compile-time contract: the repository never
// inspects entity fields reflectively.
type FieldProvider interface {
	PartitionFields() map[string]Value
}

// Build extracts the named properties from the entity in declared order and
// assembles the partition key.
func Build(entity FieldProvider, properties []string) (Key, error) {
	if entity == nil {
		return Key{}, pkgerrors.NewValidationError("entity is required to build a partition key")
	}
	if len(properties) == 0 {
		return Key{}, pkgerrors.NewValidationError("no partition key properties configured")
	}

	fields := entity.PartitionFields()
	components := make([]Value, 0, len(properties))
	for _, name := range properties {
		value, ok := fields[name]
		if !ok {
			return Key{}, pkgerrors.NewValidationError("partition property '" + name + "' not found")
		}
		if value.IsNull() {
			return Key{}, pkgerrors.NewValidationError("partition property '" + name + "' is null").
				WithCode("NULL_PARTITION_VALUE")
		}
		components = append(components, value)
	}

	return Key{components: components}, nil
}
