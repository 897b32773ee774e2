package determinism

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"unicode/utf16"

	"github.com/gowebpki/jcs"
	"github.com/shopspring/decimal"
)

// Member is a single key/value pair of a canonical object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object whose members are held in canonical key order.
// It marshals exactly in that order.
type Object []Member

// MarshalJSON emits the members in their stored order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encode(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Canonicalize returns the canonical form of v: arrays are mapped element-wise,
// objects become an Object with keys in UTF-16 code unit order, numbers are
// spelled in their shortest decimal form (1.0 and 1e0 both become 1).
//
// Values that are not already generic JSON trees (structs, typed maps,
// decimals) are first lowered through their JSON encoding.
func Canonicalize(v any) (any, error) {
	tree, err := lower(v)
	if err != nil {
		return nil, err
	}
	return canonical(tree), nil
}

// CanonicalJSON serializes v as RFC 8785 JSON: sorted keys, no insignificant
// whitespace, ECMAScript number formatting, no HTML escaping.
func CanonicalJSON(v any) ([]byte, error) {
	c, err := Canonicalize(v)
	if err != nil {
		return nil, err
	}
	data, err := encode(c)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

// Fingerprint is the lowercase hex SHA-256 of the canonical JSON of v.
func Fingerprint(v any) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	return ComputeHash(data).Hex(), nil
}

func canonical(v any) any {
	switch t := v.(type) {
	case map[string]any:
		obj := make(Object, 0, len(t))
		for k, e := range t {
			obj = append(obj, Member{Key: k, Value: canonical(e)})
		}
		sortMembers(obj)
		return obj
	case Object:
		obj := make(Object, len(t))
		for i, m := range t {
			obj[i] = Member{Key: m.Key, Value: canonical(m.Value)}
		}
		sortMembers(obj)
		return obj
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = canonical(e)
		}
		return out
	case json.Number:
		return number(t)
	default:
		return v
	}
}

func sortMembers(obj Object) {
	sort.SliceStable(obj, func(i, j int) bool { return keyLess(obj[i].Key, obj[j].Key) })
}

// keyLess orders keys by UTF-16 code units, which differs from byte order
// only for characters outside the Basic Multilingual Plane.
func keyLess(a, b string) bool {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b))) < 0
}

// number drops trailing zeros and exponents: 1.0, 1e0 and 1.00 are all 1.
func number(n json.Number) json.Number {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return n
	}
	return json.Number(d.String())
}

// lower turns v into a tree of map[string]any, []any, Object and JSON scalars.
func lower(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, json.Number:
		return v, nil
	case Object:
		obj := make(Object, len(t))
		for i, m := range t {
			val, err := lower(m.Value)
			if err != nil {
				return nil, err
			}
			obj[i] = Member{Key: m.Key, Value: val}
		}
		return obj, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			val, err := lower(e)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			val, err := lower(e)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}

	data, err := encode(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
