package entity

import (
	"encoding/json"
	"reflect"
	"strings"
)

// decodeWithExtra unmarshals data into v and returns the object members that
// v does not declare, so they can be written back untouched.
func decodeWithExtra(data []byte, v interface{}) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	members := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(v)) {
		delete(members, name)
	}
	if len(members) <= 0 {
		return nil, nil
	}
	return members, nil
}

// encodeWithExtra marshals v and appends the extra members it does not
// already define.
func encodeWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) <= 0 {
		return data, err
	}

	members := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for name, raw := range extra {
		if _, ok := members[name]; !ok {
			members[name] = raw
		}
	}
	return json.Marshal(members)
}

func jsonFieldNames(t reflect.Type) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if f.Anonymous && tag == "" {
			names = append(names, jsonFieldNames(f.Type)...)
			continue
		}
		if !f.IsExported() || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

func copyExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
