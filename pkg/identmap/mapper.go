// Package identmap applies a naming convention at the two boundaries between
// application code and storage: identifiers on their way to the driver, and the
// keys of result rows on their way back.
//
// A Mapper is convention agnostic. It is normally built from the memoized
// casing.ToSnake (Format) and casing.ToCamel (Parse), but any pair of inverse
// string functions works.
package identmap

import (
	"strings"

	"github.com/nucleus/dbregistry/pkg/casing"
	"github.com/nucleus/dbregistry/pkg/memo"
)

// DefaultSeparator delimits the prefix and suffix of a compound identifier.
const DefaultSeparator = ":"

// Mapper translates compound identifiers and result row keys.
type Mapper struct {
	// Parse converts storage names to application names (result keys).
	Parse func(string) string
	// Format converts application names to storage names (identifiers).
	Format func(string) string
	// Separator splits compound identifiers; only the last segment is formatted.
	Separator string
}

// New creates a Mapper. An empty separator selects DefaultSeparator.
func New(parse, format func(string) string, separator string) *Mapper {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Mapper{Parse: parse, Format: format, Separator: separator}
}

// NewSnakeCase creates the camel to snake Mapper with each direction memoized
// independently. cacheSize bounds each cache; zero keeps them unbounded.
func NewSnakeCase(separator string, cacheSize int) (*Mapper, error) {
	parse, err := memo.Bounded(casing.ToCamel, cacheSize)
	if err != nil {
		return nil, err
	}
	format, err := memo.Bounded(casing.ToSnake, cacheSize)
	if err != nil {
		return nil, err
	}
	return New(parse, format, separator), nil
}

// FormatIdentifier applies Format to the part of identifier after the last
// separator. The prefix, separators included, is left untouched.
func (m *Mapper) FormatIdentifier(identifier string) string {
	idx := strings.LastIndex(identifier, m.Separator)
	if idx < 0 {
		return m.Format(identifier)
	}
	cut := idx + len(m.Separator)
	return identifier[:cut] + m.Format(identifier[cut:])
}

// WrapIdentifier formats identifier and hands the result to originalWrap, the
// driver's own quoting step.
func (m *Mapper) WrapIdentifier(identifier string, originalWrap func(string) string) string {
	formatted := m.FormatIdentifier(identifier)
	if originalWrap == nil {
		return formatted
	}
	return originalWrap(formatted)
}

// PostProcessResponse applies Parse to the keys of every row in result.
//
// result may be a slice of rows or a single row. Keys are remapped one level
// deep; nested values and non-object rows are returned unchanged and row order
// is preserved. Any other value is returned as is.
func (m *Mapper) PostProcessResponse(result any) any {
	switch v := result.(type) {
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, row := range v {
			out[i] = m.mapKeys(row)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, row := range v {
			if obj, ok := row.(map[string]any); ok {
				out[i] = m.mapKeys(obj)
				continue
			}
			out[i] = row
		}
		return out
	case map[string]any:
		return m.mapKeys(v)
	default:
		return result
	}
}

func (m *Mapper) mapKeys(row map[string]any) map[string]any {
	if row == nil {
		return nil
	}
	out := make(map[string]any, len(row))
	for k, val := range row {
		out[m.Parse(k)] = val
	}
	return out
}
