package jdoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Decode parses a JSON object into a new Document, preserving key order.
// Input that is not a single well-formed JSON object is rejected, as are
// objects with duplicate keys.
func Decode(data []byte) (*Document, error) {
	doc := New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// UnmarshalJSONFrom implements json.UnmarshalerFrom, replacing the contents of
// o with the decoded object.
func (o *Object) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	if k := dec.PeekKind(); k != '{' {
		return fmt.Errorf("expected object, got %v", k)
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return err
	}
	o.entries = obj.entries
	return nil
}

// UnmarshalJSONFrom implements json.UnmarshalerFrom.
func (v *Value) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func decodeValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		obj, err := decodeObject(dec)
		if err != nil {
			return Value{}, err
		}
		return ObjectValue(obj), nil
	case '[':
		arr, err := decodeArray(dec)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindArray, arr: arr}, nil
	}
	tok, err := dec.ReadToken()
	if err != nil {
		return Value{}, fmt.Errorf("read value: %w", err)
	}
	switch tok.Kind() {
	case 'n':
		return Null(), nil
	case 't', 'f':
		return Bool(tok.Bool()), nil
	case '"':
		return String(tok.String()), nil
	case '0':
		return decodeNumber(tok.String())
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok.Kind())
}

// decodeNumber keeps integer literals as Int and falls back to Float for
// fractions, exponents and integers outside the int64 range.
func decodeNumber(raw string) (Value, error) {
	if !strings.ContainsAny(raw, ".eE") {
		i, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return Int(i), nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("parse number %q: %w", raw, err)
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parse number %q: %w", raw, err)
	}
	return Float(f), nil
}

func decodeObject(dec *jsontext.Decoder) (*Object, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("read object open: %w", err)
	}
	obj := NewObject()
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		key := tok.String()
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("read value for key %q: %w", key, err)
		}
		obj.Set(key, val)
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("read object close: %w", err)
	}
	return obj, nil
}

func decodeArray(dec *jsontext.Decoder) (Array, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	arr := make(Array, 0)
	for dec.PeekKind() != ']' {
		elem, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("read array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return arr, nil
}
