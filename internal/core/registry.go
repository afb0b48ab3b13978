package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// KindDefinition describes how one entity kind is built from fields,
// merged into a stored record, read from a positional row and rendered.
type KindDefinition struct {
	Kind  Kind
	Label string // Display name, e.g. "Stops"

	// KeyField names the field that carries the entity's key.
	KeyField string
	// Columns are the fixed positional import columns, in order.
	Columns []string
	// Variadic names the field that collects trailing row cells, or "".
	Variadic string

	// Apply copies every field present in f onto rec and returns the result.
	// Absent fields are left untouched.
	Apply func(rec Record, f Fields) (Record, error)
	// Zero returns the empty record of this kind.
	Zero func() Record
	// Describe renders one record as a line of text.
	Describe func(rec Record) string
}

var (
	registry   = make(map[Kind]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if the kind is already registered.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Kind]; exists {
		panic(fmt.Sprintf("kind already registered: %s", def.Kind))
	}
	registry[def.Kind] = def
}

// Get returns a kind definition.
// Returns false if not found.
func Get(kind Kind) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns all registered kind definitions sorted by kind.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})

	return result
}

// ParseKind resolves a path segment such as "stops" to a registered kind.
func ParseKind(s string) (KindDefinition, error) {
	def, ok := Get(Kind(strings.ToLower(strings.TrimSpace(s))))
	if !ok {
		return KindDefinition{}, fmt.Errorf("%w: unknown kind %q", ErrNotFound, s)
	}
	return def, nil
}

// Build creates a new record. Every fixed column must be present.
func (d KindDefinition) Build(f Fields) (Record, error) {
	for _, col := range d.Columns {
		if !f.Has(col) {
			return nil, Malformed(col, "")
		}
	}
	return d.Apply(d.Zero(), f)
}

// Merge applies the present fields of f to existing. A key field that
// differs from the existing key is a constraint violation.
func (d KindDefinition) Merge(existing Record, f Fields) (Record, error) {
	if f.Has(d.KeyField) {
		id, err := ParseID(d.KeyField, f.Get(d.KeyField))
		if err != nil {
			return nil, err
		}
		if id != existing.Key() {
			return nil, Constraint("%s cannot be changed (%d -> %d)", d.KeyField, existing.Key(), id)
		}
	}
	return d.Apply(existing, f)
}

// RowFields maps a positional row onto named fields.
//
// The row needs at least len(Columns) cells; extra cells are ignored unless
// the kind is variadic, in which case non-empty trailing cells are collected
// under Variadic. When omitEmpty is set, empty fixed cells other than the
// key are left out so that a merge keeps the stored value.
func (d KindDefinition) RowFields(row []string, omitEmpty bool) (Fields, error) {
	if len(row) < len(d.Columns) {
		return nil, fmt.Errorf("%w: %d fields, want %d", ErrMalformedInput, len(row), len(d.Columns))
	}

	f := make(Fields, len(d.Columns)+1)
	for i, col := range d.Columns {
		v := row[i]
		if omitEmpty && col != d.KeyField && CleanCell(v) == "" {
			continue
		}
		f.Set(col, v)
	}

	if d.Variadic != "" {
		for _, v := range row[len(d.Columns):] {
			if CleanCell(v) != "" {
				f.Add(d.Variadic, v)
			}
		}
	}

	return f, nil
}

// KeyOf parses the key from f.
func (d KindDefinition) KeyOf(f Fields) (int64, error) {
	return ParseID(d.KeyField, f.Get(d.KeyField))
}

// CanonicalFields renames form keys to the definition's field names,
// ignoring case and underscores ("line_id" and "lineid" become "LineId").
// Unknown keys are dropped.
func (d KindDefinition) CanonicalFields(in Fields) Fields {
	names := make(map[string]string, len(d.Columns)+1)
	for _, col := range d.Columns {
		names[foldField(col)] = col
	}
	if d.Variadic != "" {
		names[foldField(d.Variadic)] = d.Variadic
	}

	out := make(Fields, len(in))
	for k, vs := range in {
		if name, ok := names[foldField(k)]; ok {
			out[name] = append(out[name], vs...)
		}
	}
	return out
}

func foldField(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}
