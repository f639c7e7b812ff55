package core

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the declared type of a column. The numeric values are the
// on-disk encoding and must not change.
type FieldType int32

// Column types.
const (
	TypeInt    FieldType = 0
	TypeString FieldType = 1
	TypeFloat  FieldType = 2
)

// String returns the SQL name of the type.
func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeString:
		return "STRING"
	case TypeFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("TYPE(%d)", int32(t))
	}
}

// Valid reports whether t is one of the known column types.
func (t FieldType) Valid() bool {
	return t == TypeInt || t == TypeString || t == TypeFloat
}

// IsNumeric reports whether t is INT or FLOAT.
func (t FieldType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// ParseFieldType converts a type name (case-insensitive) to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INT", "INTEGER":
		return TypeInt, nil
	case "STRING", "TEXT", "VARCHAR":
		return TypeString, nil
	case "FLOAT", "DOUBLE", "REAL":
		return TypeFloat, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// Field is one column of a table schema.
type Field struct {
	Name    string
	Type    FieldType
	Primary bool
}

// String renders the field as name:TYPE with a trailing * for the primary key.
func (f Field) String() string {
	s := f.Name + ":" + f.Type.String()
	if f.Primary {
		s += "*"
	}
	return s
}

// ParseField parses the name:TYPE[*] notation used by the shell and CLI,
// e.g. "id:INT*".
func ParseField(s string) (Field, error) {
	name, typ, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Field{}, fmt.Errorf("invalid field %q: expected name:TYPE", s)
	}
	primary := strings.HasSuffix(typ, "*")
	typ = strings.TrimSuffix(typ, "*")
	ft, err := ParseFieldType(typ)
	if err != nil {
		return Field{}, fmt.Errorf("invalid field %q: %w", s, err)
	}
	if !IsIdentifier(name) {
		return Field{}, fmt.Errorf("invalid field name %q", name)
	}
	return Field{Name: name, Type: ft, Primary: primary}, nil
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Schema is the ordered list of fields of a table.
type Schema []Field

// Errors returned by Schema.Validate.
var (
	ErrMultiplePrimary = errors.New("more than one primary key specified")
	ErrDuplicateField  = errors.New("duplicate field name")
)

// Validate checks field names, types and that at most one field is primary.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	primary := 0
	for _, f := range s {
		if !IsIdentifier(f.Name) {
			return fmt.Errorf("invalid field name %q", f.Name)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true
		if f.Primary {
			primary++
		}
	}
	if primary > 1 {
		return ErrMultiplePrimary
	}
	return nil
}

// Index returns the position of the named field, or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Primary returns the position of the primary field, or -1.
func (s Schema) Primary() int {
	for i, f := range s {
		if f.Primary {
			return i
		}
	}
	return -1
}

// Names returns the field names in declared order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
