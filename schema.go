package searchbridge

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain/index"
)

const tagKey = "search"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ   reflect.Type // struct type for reconstruction
	isPtr bool         // T is *struct

	idIdx int
	// Mapping from struct field index to document attribute, in field order.
	fields []fieldMapping

	cfg index.Config
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts search struct tag metadata.
//
// Tag format: `search:"name,modifier,..."`. Modifiers: id, searchable,
// filterable, sortable, numeric. Integer and float fields with a role are
// numeric without the modifier. A field without modifiers is stored but not
// indexed; "-" skips the field.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("searchbridge: type parameter is an interface")
	}
	meta := &schemaMeta{idIdx: -1}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		meta.isPtr = true
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("searchbridge: type %s is not a struct", t)
	}
	meta.typ = t

	seen := make(map[string]bool)
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		if err := applyTag(meta, i, f, tag, seen); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("searchbridge: no field with `search:\"...,id\"` tag in %s", t)
	}
	if err := meta.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("searchbridge: %s: %w", t, err)
	}
	return meta, nil
}

// applyTag processes a single struct field's search tag.
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string, seen map[string]bool) error {
	parts := strings.Split(tag, ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		name = f.Name
	}
	if seen[name] {
		return fmt.Errorf("searchbridge: duplicate attribute %q on field %s", name, f.Name)
	}
	seen[name] = true
	meta.fields = append(meta.fields, fieldMapping{structIdx: idx, name: name})

	hasRole, numeric := false, false
	for _, modifier := range parts[1:] {
		switch strings.TrimSpace(modifier) {
		case "id":
			if meta.idIdx != -1 {
				return fmt.Errorf("searchbridge: duplicate id tag on field %s", f.Name)
			}
			meta.idIdx = idx
			meta.cfg.PrimaryKey = name
		case "searchable":
			meta.cfg.SearchableAttributes = append(meta.cfg.SearchableAttributes, name)
			hasRole = true
		case "filterable":
			meta.cfg.FilterableAttributes = append(meta.cfg.FilterableAttributes, name)
			hasRole = true
		case "sortable":
			meta.cfg.SortableAttributes = append(meta.cfg.SortableAttributes, name)
			hasRole = true
		case "numeric":
			numeric = true
		case "":
		default:
			return fmt.Errorf("searchbridge: unknown modifier %q on field %s", modifier, f.Name)
		}
	}
	if numeric || (hasRole && isNumberKind(f.Type.Kind())) {
		meta.cfg.NumericAttributes = append(meta.cfg.NumericAttributes, name)
	}
	return nil
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// indexConfig returns a copy of the derived index configuration.
func (m *schemaMeta) indexConfig() index.Config {
	cfg := m.cfg
	cfg.SearchableAttributes = append([]string(nil), m.cfg.SearchableAttributes...)
	cfg.FilterableAttributes = append([]string(nil), m.cfg.FilterableAttributes...)
	cfg.SortableAttributes = append([]string(nil), m.cfg.SortableAttributes...)
	cfg.NumericAttributes = append([]string(nil), m.cfg.NumericAttributes...)
	return cfg
}

// toDocument converts a typed struct to Document using schema metadata.
func (m *schemaMeta) toDocument(item any) (Document, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("searchbridge: nil %s", m.typ)
		}
		v = v.Elem()
	}
	doc := make(Document, len(m.fields))
	for _, fm := range m.fields {
		doc[fm.name] = v.Field(fm.structIdx).Interface()
	}
	return doc, nil
}

// fromHit decodes a raw hit into a new value of the schema type. Attributes
// missing from the hit keep their zero value; unknown attributes are ignored.
func (m *schemaMeta) fromHit(raw json.RawMessage) (any, error) {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("decode hit: %w", err)
	}
	ptr := reflect.New(m.typ)
	v := ptr.Elem()
	for _, fm := range m.fields {
		val, ok := attrs[fm.name]
		if !ok {
			continue
		}
		if err := decodeField(v.Field(fm.structIdx), val); err != nil {
			return nil, fmt.Errorf("decode %q: %w", fm.name, err)
		}
	}
	if m.isPtr {
		return ptr.Interface(), nil
	}
	return v.Interface(), nil
}

// decodeField unmarshals val into field. Redis returns every value as text,
// so quoted numbers are accepted for number fields and bare scalars for strings.
func decodeField(field reflect.Value, val json.RawMessage) error {
	err := json.Unmarshal(val, field.Addr().Interface())
	if err == nil {
		return nil
	}
	var s string
	if json.Unmarshal(val, &s) == nil && isNumberKind(field.Kind()) {
		return json.Unmarshal([]byte(s), field.Addr().Interface())
	}
	if field.Kind() == reflect.String {
		field.SetString(strings.Trim(string(val), `"`))
		return nil
	}
	return err
}
