package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/koba/table-diff/internal/schema"
)

// JSON reads JSON documents. The table layout depends on the document shape:
//
//   - an object of equally long arrays is read column-wise
//   - an object of scalars is a single row
//   - an array of objects is one row per object, nested objects flattened
//   - an array of scalars is a single "value" column
//   - any other object is flattened into a single row with dotted column names
//
// Arrays that cannot be spread into columns are kept as compact JSON text.
type JSON struct{}

func (JSON) Name() string { return "json" }
func (JSON) Extensions() []string { return []string{".json"} }
func (j JSON) CanHandle(name string) bool { return hasExtension(name, j.Extensions()) }
func (JSON) Options(File) (Options, error) { return Options{}, nil }

func (JSON) Read(f File, _ ReadOptions) (*schema.Table, error) {
	doc, err := decodeJSON(f.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	switch v := doc.(type) {
	case *object:
		if headers, rows, ok := v.columnar(); ok {
			return schema.FromValues(f.Name, headers, rows)
		}
		flat := newObject()
		flattenObject("", v, flat)
		return schema.FromValues(f.Name, flat.keys, [][]interface{}{flat.orderedValues()})
	case []interface{}:
		return readArray(f.Name, v)
	default:
		return nil, fmt.Errorf("%w: top-level value must be an object or an array", ErrUnsupportedJSON)
	}
}

func readArray(name string, items []interface{}) (*schema.Table, error) {
	if len(items) == 0 {
		return nil, ErrNoColumns
	}

	allObjects := true
	for _, item := range items {
		if _, ok := item.(*object); !ok {
			allObjects = false
			break
		}
	}

	if !allObjects {
		// nested values in a single column are kept as JSON text
		rows := make([][]interface{}, len(items))
		for i, item := range items {
			rows[i] = []interface{}{item}
		}
		return schema.FromValues(name, []string{"value"}, rows)
	}

	// union of flattened keys in first-appearance order
	var headers []string
	index := make(map[string]int)
	records := make([]*object, len(items))
	for i, item := range items {
		flat := newObject()
		flattenObject("", item.(*object), flat)
		records[i] = flat
		for _, k := range flat.keys {
			if _, ok := index[k]; !ok {
				index[k] = len(headers)
				headers = append(headers, k)
			}
		}
	}
	if len(headers) == 0 {
		return nil, ErrNoColumns
	}

	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(headers))
		for _, k := range rec.keys {
			row[index[k]] = rec.values[k]
		}
		rows[i] = row
	}
	return schema.FromValues(name, headers, rows)
}

// flattenObject copies in to out, joining nested object keys with dots
func flattenObject(prefix string, in *object, out *object) {
	for _, k := range in.keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := in.values[k].(type) {
		case *object:
			flattenObject(key, v, out)
		default:
			out.set(key, v)
		}
	}
}

// object is a decoded JSON object that remembers its key order
type object struct {
	keys   []string
	values map[string]interface{}
}

func newObject() *object {
	return &object{values: make(map[string]interface{})}
}

func (o *object) set(key string, v interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *object) orderedValues() []interface{} {
	values := make([]interface{}, len(o.keys))
	for i, k := range o.keys {
		values[i] = o.values[k]
	}
	return values
}

// columnar reports whether every value is an array of the same length and,
// if so, returns the object read column-wise
func (o *object) columnar() ([]string, [][]interface{}, bool) {
	if len(o.keys) == 0 {
		return nil, nil, false
	}

	length := -1
	for _, k := range o.keys {
		arr, ok := o.values[k].([]interface{})
		if !ok {
			return nil, nil, false
		}
		if length >= 0 && len(arr) != length {
			return nil, nil, false
		}
		length = len(arr)
	}

	rows := make([][]interface{}, length)
	for r := range rows {
		rows[r] = make([]interface{}, len(o.keys))
		for c, k := range o.keys {
			rows[r][c] = o.values[k].([]interface{})[r]
		}
	}
	return append([]string(nil), o.keys...), rows, true
}

// MarshalJSON writes the object with its original key order
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeJSON decodes a document into *object, []interface{}, json.Number,
// string, bool or nil
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := newObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []interface{}{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
