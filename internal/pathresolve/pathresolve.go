// Package pathresolve walks dotted property paths over the policy graph.
//
// A path such as "GlLine.Premium.Rollup" is resolved segment by segment:
// struct fields and zero-argument methods match case-insensitively, map keys
// match case-insensitively, and slices accept either a numeric index or the
// code of an element. Two shortcuts mirror how forms address the policy:
// "<Code>Line" selects a line of business, and a class type name on a line
// selects that line's first risk unit of the class.
package pathresolve

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/docmerge/pkg/domain"
)

// DefaultDateLayout renders dates as MM/DD/YYYY.
const DefaultDateLayout = "01/02/2006"

// Resolver resolves paths and stringifies leaves.
type Resolver struct {
	DateLayout string
}

// New creates a Resolver. An empty layout uses DefaultDateLayout.
func New(dateLayout string) *Resolver {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Resolver{DateLayout: dateLayout}
}

var std = New("")

// Resolve resolves path with the default resolver.
func Resolve(root any, path string) (string, bool) { return std.Resolve(root, path) }

// Lookup resolves path with the default resolver, returning the raw value.
func Lookup(root any, path string) (any, bool) { return std.Lookup(root, path) }

// Resolve walks path from root and stringifies the leaf.
// The second result is false when any segment is missing or nil.
func (r *Resolver) Resolve(root any, path string) (string, bool) {
	v, ok := r.walk(reflect.ValueOf(root), path)
	if !ok {
		return "", false
	}
	return r.format(v)
}

// Lookup walks path from root and returns the value found there.
func (r *Resolver) Lookup(root any, path string) (any, bool) {
	v, ok := r.walk(reflect.ValueOf(root), path)
	if !ok || !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

// Format stringifies a value the way Resolve stringifies leaves.
func (r *Resolver) Format(value any) string {
	s, _ := r.format(reflect.ValueOf(value))
	return s
}

func (r *Resolver) walk(v reflect.Value, path string) (reflect.Value, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return reflect.Value{}, false
	}
	for _, seg := range strings.Split(path, ".") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return reflect.Value{}, false
		}
		next, ok := step(v, seg)
		if !ok {
			return reflect.Value{}, false
		}
		v = next
	}
	return v, true
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func step(v reflect.Value, seg string) (reflect.Value, bool) {
	if m, ok := method(v, seg); ok {
		return m, true
	}
	v, ok := indirect(v)
	if !ok {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Struct:
		if sf, ok := v.Type().FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, seg) }); ok && sf.IsExported() {
			if f, err := v.FieldByIndexErr(sf.Index); err == nil {
				return f, true
			}
			return reflect.Value{}, false
		}
		if code, ok := domain.ParseLineSegment(seg); ok {
			return findByField(v.FieldByName("Lines"), "Code", string(code))
		}
		if class, ok := domain.ParseClassType(seg); ok {
			return findByField(v.FieldByName("RiskUnits"), "ClassType", string(class))
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		iter := v.MapRange()
		for iter.Next() {
			if strings.EqualFold(iter.Key().String(), seg) {
				return iter.Value(), true
			}
		}
	case reflect.Slice, reflect.Array:
		if i, err := strconv.Atoi(seg); err == nil {
			if i < 0 || i >= v.Len() {
				return reflect.Value{}, false
			}
			return v.Index(i), true
		}
		return findByField(v, "Code", seg)
	}
	return reflect.Value{}, false
}

// method calls a zero-argument method named seg. Methods returning (T, bool)
// fail the lookup when the bool is false.
func method(v reflect.Value, seg string) (reflect.Value, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || !v.CanInterface() {
		return reflect.Value{}, false
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface {
		if v.CanAddr() {
			v = v.Addr()
		} else {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}
	} else if v.IsNil() {
		return reflect.Value{}, false
	}

	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.EqualFold(m.Name, seg) {
			continue
		}
		if m.Type.NumIn() != 1 {
			return reflect.Value{}, false
		}
		out := v.Method(i).Call(nil)
		switch len(out) {
		case 1:
			return out[0], true
		case 2:
			if out[1].Kind() == reflect.Bool && !out[1].Bool() {
				return reflect.Value{}, false
			}
			return out[0], true
		}
		return reflect.Value{}, false
	}
	return reflect.Value{}, false
}

func findByField(list reflect.Value, field, want string) (reflect.Value, bool) {
	list, ok := indirect(list)
	if !ok || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return reflect.Value{}, false
	}
	for i := 0; i < list.Len(); i++ {
		el, ok := indirect(list.Index(i))
		if !ok || el.Kind() != reflect.Struct {
			continue
		}
		f := el.FieldByName(field)
		if f.IsValid() && f.Kind() == reflect.String && strings.EqualFold(f.String(), want) {
			return el, true
		}
	}
	return reflect.Value{}, false
}

var timeType = reflect.TypeOf(time.Time{})

func (r *Resolver) format(v reflect.Value) (string, bool) {
	v, ok := indirect(v)
	if !ok {
		return "", false
	}
	if !v.CanInterface() {
		return "", false
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "", true
		}
		return t.Format(r.DateLayout), true
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array, reflect.Map:
		// Collections stringify to their size so "_If.Warranties" tests for presence.
		if v.Len() == 0 {
			return "", true
		}
		return strconv.Itoa(v.Len()), true
	case reflect.Struct:
		if v.IsZero() {
			return "", true
		}
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}
	return "", false
}
