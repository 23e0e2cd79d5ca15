// Package tag fills zero-valued struct fields from `default:"..."` tags.
package tag

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const (
	tagName   = "default"
	separator = ","
	maxDepth  = 32
)

var (
	ErrTargetMustBePointer = errors.New("target must be a pointer")
	ErrTargetIsNil         = errors.New("target is nil")
	ErrUnsupportedType     = errors.New("unsupported type")
	ErrMaxDepthExceeded    = errors.New("max recursion depth exceeded")
)

// FieldError reports which field failed to take its default.
type FieldError struct {
	Path  string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (default %q): %v", e.Path, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ApplyDefaults sets default values for zero-valued fields of the struct
// target points to. Fields that already hold a value are left alone, nested
// structs (and pointers to structs) are walked recursively.
//
//	type API struct {
//	    BaseURL string        `default:"http://localhost:8080"`
//	    Timeout time.Duration `default:"30s"`
//	}
func ApplyDefaults(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		return ErrTargetMustBePointer
	}
	if v.IsNil() {
		return ErrTargetIsNil
	}
	if v.Elem().Kind() != reflect.Struct {
		return ErrUnsupportedType
	}
	return applyStruct(v.Elem(), "", 0)
}

func applyStruct(v reflect.Value, path string, depth int) error {
	if depth >= maxDepth {
		return ErrMaxDepthExceeded
	}

	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		if err := applyField(fv, field.Tag.Get(tagName), fieldPath, depth); err != nil {
			return err
		}
	}
	return nil
}

func applyField(v reflect.Value, def, path string, depth int) error {
	switch v.Kind() {
	case reflect.Struct:
		return applyStruct(v, path, depth+1)

	case reflect.Pointer:
		if v.Type().Elem().Kind() == reflect.Struct {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			return applyStruct(v.Elem(), path, depth+1)
		}
		if !v.IsNil() || def == "" {
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := parseValue(elem.Elem(), def); err != nil {
			return &FieldError{Path: path, Value: def, Err: err}
		}
		v.Set(elem)
		return nil

	case reflect.Slice:
		if v.Len() > 0 {
			for i := 0; i < v.Len(); i++ {
				if err := applyElem(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if def == "" || !v.IsZero() {
		return nil
	}

	var err error
	switch v.Kind() {
	case reflect.Slice:
		err = parseSlice(v, def)
	case reflect.Map:
		err = parseMap(v, def)
	default:
		err = parseValue(v, def)
	}
	if err != nil {
		return &FieldError{Path: path, Value: def, Err: err}
	}
	return nil
}

func applyElem(v reflect.Value, path string, depth int) error {
	switch {
	case v.Kind() == reflect.Struct:
		return applyStruct(v, path, depth+1)
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct:
		return applyStruct(v.Elem(), path, depth+1)
	}
	return nil
}

func parseSlice(v reflect.Value, def string) error {
	parts := strings.Split(def, separator)
	slice := reflect.MakeSlice(v.Type(), len(parts), len(parts))
	for i, part := range parts {
		if err := parseValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
			return err
		}
	}
	v.Set(slice)
	return nil
}

// parseMap reads "k1: v1, k2: v2".
func parseMap(v reflect.Value, def string) error {
	m := reflect.MakeMap(v.Type())
	for pair := range strings.SplitSeq(def, separator) {
		key, val, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		k := reflect.New(v.Type().Key()).Elem()
		e := reflect.New(v.Type().Elem()).Elem()
		if err := parseValue(k, strings.TrimSpace(key)); err != nil {
			return err
		}
		if err := parseValue(e, strings.TrimSpace(val)); err != nil {
			return err
		}
		m.SetMapIndex(k, e)
	}
	v.Set(m)
	return nil
}
