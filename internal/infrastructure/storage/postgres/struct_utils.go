package postgres

import (
	"reflect"
	"sync"
)

// columnIndex is the cached db-tag layout of one struct type.
type columnIndex struct {
	names []string
	paths [][]int
}

var columnCache sync.Map // reflect.Type -> *columnIndex

func indexOf(t reflect.Type) *columnIndex {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.(*columnIndex)
	}

	idx := &columnIndex{}
	if t.Kind() == reflect.Struct {
		collectColumns(t, nil, idx)
	}
	columnCache.Store(t, idx)
	return idx
}

// collectColumns walks exported fields in declaration order, descending
// into embedded structs.
func collectColumns(t reflect.Type, prefix []int, idx *columnIndex) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectColumns(f.Type, path, idx)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		idx.names = append(idx.names, tag)
		idx.paths = append(idx.paths, path)
	}
}

// ExtractDBColumns returns the db-tagged column names of T in field order.
func ExtractDBColumns[T any]() []string {
	var zero T
	return append([]string(nil), indexOf(reflect.TypeOf(zero)).names...)
}

// QualifiedColumns prefixes each db column of T with alias.
func QualifiedColumns[T any](alias string) []string {
	cols := ExtractDBColumns[T]()
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

// StructToMap converts a struct (or pointer to struct) into column -> value
// using db tags. A nil pointer or non-struct yields nil.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	idx := indexOf(rv.Type())
	res := make(map[string]any, len(idx.names))
	for i, name := range idx.names {
		res[name] = rv.FieldByIndex(idx.paths[i]).Interface()
	}
	return res
}

// StructToMapExcept is StructToMap without the given columns.
func StructToMapExcept(v any, skip ...string) map[string]any {
	m := StructToMap(v)
	for _, s := range skip {
		delete(m, s)
	}
	return m
}
