package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// object is a decoded JSON object that remembers its own path so every
// accessor can report the exact field that failed.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseObject(raw json.RawMessage, path string) (object, error) {
	if isNull(raw) {
		return object{}, newDecodeError(ValueNotFound, path, nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return object{}, newDecodeError(TypeMismatch, path, fmt.Errorf("expected object: %w", err))
	}
	return object{path: path, fields: fields}, nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func (o object) child(key string) string { return joinPath(o.path, key) }

func (o object) raw(key string) (json.RawMessage, error) {
	v, ok := o.fields[key]
	if !ok {
		return nil, newDecodeError(KeyNotFound, o.child(key), nil)
	}
	if isNull(v) {
		return nil, newDecodeError(ValueNotFound, o.child(key), nil)
	}
	return v, nil
}

func (o object) optionalRaw(key string) (json.RawMessage, bool) {
	v, ok := o.fields[key]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

func decodeValue(raw json.RawMessage, path string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return newDecodeError(TypeMismatch, path, err)
	}
	return nil
}

func (o object) string(key string) (string, error) {
	raw, err := o.raw(key)
	if err != nil {
		return "", err
	}
	var s string
	if err := decodeValue(raw, o.child(key), &s); err != nil {
		return "", err
	}
	return s, nil
}

func (o object) optionalString(key string) (*string, error) {
	raw, ok := o.optionalRaw(key)
	if !ok {
		return nil, nil
	}
	var s string
	if err := decodeValue(raw, o.child(key), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (o object) bool(key string) (bool, error) {
	raw, err := o.raw(key)
	if err != nil {
		return false, err
	}
	var b bool
	if err := decodeValue(raw, o.child(key), &b); err != nil {
		return false, err
	}
	return b, nil
}

func (o object) int(key string) (int, error) {
	raw, err := o.raw(key)
	if err != nil {
		return 0, err
	}
	var n int
	if err := decodeValue(raw, o.child(key), &n); err != nil {
		return 0, err
	}
	return n, nil
}

func parseTimestamp(raw json.RawMessage, path string) (time.Time, error) {
	var s string
	if err := decodeValue(raw, path, &s); err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, newDecodeError(InvalidTimestamp, path, err)
	}
	return ts.UTC(), nil
}

func (o object) timestamp(key string) (time.Time, error) {
	raw, err := o.raw(key)
	if err != nil {
		return time.Time{}, err
	}
	return parseTimestamp(raw, o.child(key))
}

func (o object) optionalTimestamp(key string) (*time.Time, error) {
	raw, ok := o.optionalRaw(key)
	if !ok {
		return nil, nil
	}
	ts, err := parseTimestamp(raw, o.child(key))
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (o object) object(key string) (object, error) {
	raw, err := o.raw(key)
	if err != nil {
		return object{}, err
	}
	return parseObject(raw, o.child(key))
}

func (o object) optionalObject(key string) (object, bool, error) {
	raw, ok := o.optionalRaw(key)
	if !ok {
		return object{}, false, nil
	}
	obj, err := parseObject(raw, o.child(key))
	if err != nil {
		return object{}, false, err
	}
	return obj, true, nil
}

// array returns the raw elements of a required array together with the path
// of the array itself.
func (o object) array(key string) ([]json.RawMessage, string, error) {
	raw, err := o.raw(key)
	if err != nil {
		return nil, "", err
	}
	var items []json.RawMessage
	if err := decodeValue(raw, o.child(key), &items); err != nil {
		return nil, "", err
	}
	return items, o.child(key), nil
}

func (o object) stringArray(key string) ([]string, error) {
	items, path, err := o.array(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		if isNull(item) {
			return nil, newDecodeError(ValueNotFound, indexPath(path, i), nil)
		}
		var s string
		if err := decodeValue(item, indexPath(path, i), &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// customData decodes an optional free-form JSON object.
func (o object) customData(key string) (map[string]any, error) {
	raw, ok := o.optionalRaw(key)
	if !ok {
		return nil, nil
	}
	var data map[string]any
	if err := decodeValue(raw, o.child(key), &data); err != nil {
		return nil, err
	}
	return data, nil
}
