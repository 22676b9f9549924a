package screening

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is a semantic input the model may consume.
type Field string

const (
	FieldAge           Field = "age"
	FieldGender        Field = "gender"
	FieldJaundice      Field = "jaundice"
	FieldFamilyHistory Field = "family_history"
)

// ItemField returns the field for a 1-based item number (a1..a10).
func ItemField(item int) Field {
	return Field("a" + strconv.Itoa(item))
}

// AllFields lists the fourteen fields in canonical order.
func AllFields() []Field {
	fields := make([]Field, 0, ItemCount+4)
	for i := 1; i <= ItemCount; i++ {
		fields = append(fields, ItemField(i))
	}
	return append(fields, FieldAge, FieldGender, FieldJaundice, FieldFamilyHistory)
}

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFields() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

var (
	ErrUnboundFields = errors.New("schema fields not bound")
	ErrUnknownColumn = errors.New("declared column not in schema")
)

// demographicRules are applied after the item scan, in order, to every matching column.
// "austim" is the training schema's own spelling.
var demographicRules = []struct {
	field    Field
	keywords []string
}{
	{FieldAge, []string{"age"}},
	{FieldGender, []string{"gender"}},
	{FieldJaundice, []string{"jaundice"}},
	{FieldFamilyHistory, []string{"austim", "family"}},
}

// Binding assigns at most one field to each schema column. Unbound columns stay zero.
type Binding struct {
	columns []string
	fields  []Field
}

func newBinding(schema []string) *Binding {
	columns := make([]string, len(schema))
	copy(columns, schema)
	return &Binding{columns: columns, fields: make([]Field, len(schema))}
}

func normalizeColumn(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// KeywordBinding binds columns by substring match. Item aN goes to the first column
// containing both "aN" and "score"; demographics go to every column containing their
// keyword. It never fails: fields without a match are simply left unbound.
func KeywordBinding(schema []string) *Binding {
	b := newBinding(schema)
	normalized := make([]string, len(schema))
	for i, c := range schema {
		normalized[i] = normalizeColumn(c)
	}

	for item := 1; item <= ItemCount; item++ {
		id := string(ItemField(item))
		for j, col := range normalized {
			if strings.Contains(col, id) && strings.Contains(col, "score") {
				b.fields[j] = ItemField(item)
				break
			}
		}
	}

	for _, rule := range demographicRules {
		for j, col := range normalized {
			for _, kw := range rule.keywords {
				if strings.Contains(col, kw) {
					b.fields[j] = rule.field
					break
				}
			}
		}
	}
	return b
}

// DeclaredBinding binds columns from an explicit field -> column mapping.
// Column names are compared trimmed and case-insensitively.
func DeclaredBinding(schema []string, declared map[Field]string) (*Binding, error) {
	b := newBinding(schema)
	index := make(map[string]int, len(schema))
	for i, c := range schema {
		key := normalizeColumn(c)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	// sorted for deterministic error messages
	fields := make([]string, 0, len(declared))
	for f := range declared {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	var unknown []string
	for _, name := range fields {
		f, err := ParseField(name)
		if err != nil {
			return nil, err
		}
		col := declared[Field(name)]
		j, ok := index[normalizeColumn(col)]
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%s=%q", name, col))
			continue
		}
		if prev := b.fields[j]; prev != "" {
			return nil, fmt.Errorf("column %q declared for both %s and %s", schema[j], prev, f)
		}
		b.fields[j] = f
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(unknown, ", "))
	}
	return b, nil
}

// Columns returns the schema the binding was built for.
func (b *Binding) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

// FieldAt returns the field bound to column i, or "" when the column is unbound.
func (b *Binding) FieldAt(i int) Field {
	return b.fields[i]
}

// ColumnsFor returns the columns bound to f, in schema order.
func (b *Binding) ColumnsFor(f Field) []string {
	var out []string
	for i, bound := range b.fields {
		if bound == f {
			out = append(out, b.columns[i])
		}
	}
	return out
}

// Missing lists the fields that no column is bound to.
func (b *Binding) Missing() []Field {
	seen := make(map[Field]bool, len(b.fields))
	for _, f := range b.fields {
		seen[f] = true
	}
	var missing []Field
	for _, f := range AllFields() {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate fails if any field is unbound.
func (b *Binding) Validate() error {
	missing := b.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	return fmt.Errorf("%w: %s", ErrUnboundFields, strings.Join(names, ", "))
}

// Reconcile produces one row in schema order. Unbound columns are 0.
func (b *Binding) Reconcile(items ItemScores, p DemographicProfile) FeatureVector {
	values := make([]float64, len(b.columns))
	for i, f := range b.fields {
		values[i] = fieldValue(f, items, p)
	}
	return FeatureVector{Columns: b.Columns(), Values: values}
}

func fieldValue(f Field, items ItemScores, p DemographicProfile) float64 {
	switch f {
	case "":
		return 0
	case FieldAge:
		return float64(p.Age)
	case FieldGender:
		return boolToFloat(p.Sex == ReferenceSex)
	case FieldJaundice:
		return boolToFloat(p.Jaundice)
	case FieldFamilyHistory:
		return boolToFloat(p.FamilyHistory)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(string(f), "a"))
	if err != nil || n < 1 || n > ItemCount {
		return 0
	}
	return float64(items[n-1])
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// Reconcile aligns scores and demographics onto schema using keyword matching.
func Reconcile(schema []string, items ItemScores, p DemographicProfile) FeatureVector {
	return KeywordBinding(schema).Reconcile(items, p)
}
