// Package assert checks the preconditions of constructors.
package assert

import (
	"fmt"
	"reflect"
	"strings"
)

// IsNil reports whether value is nil, or a nil pointer, func, map, slice,
// channel or interface stored in an interface.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil panics when any of values is nil, see IsNil.
func NotNil(values ...any) {
	for i, value := range values {
		if IsNil(value) {
			panic(fmt.Sprintf("expected argument %d (%T) to be not nil", i, value))
		}
	}
}

// Field is a named string a caller has to supply.
type Field struct {
	Name  string
	Value string
}

// Required returns an error naming every field left blank, nil if there is
// none.
func Required(fields ...Field) error {
	var missing []string
	for _, field := range fields {
		if strings.TrimSpace(field.Value) == "" {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s", strings.Join(missing, ", "))
}
