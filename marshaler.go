package jdoc

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ErrBufferTooSmall is matched (via errors.Is) by the error Serialize returns
// when the rendered document does not fit the supplied buffer.
var ErrBufferTooSmall = errors.New("buffer too small")

// MaxDepth is the deepest nesting of objects and arrays, the root included,
// that can be rendered.
const MaxDepth = 10000

// BufferTooSmallError reports a truncated Serialize. Written bytes of the
// rendering's prefix were copied into the buffer; Needed is the full length.
type BufferTooSmallError struct {
	Written int
	Needed  int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small: wrote %d of %d bytes", e.Written, e.Needed)
}

func (e *BufferTooSmallError) Is(target error) bool {
	return target == ErrBufferTooSmall
}

// marshalOptions accept any document within MaxDepth. Invalid
// UTF-8 is replaced rather than refused, so two distinct keys may render as
// the same name; both are written.
var marshalOptions = json.JoinOptions(
	jsontext.AllowInvalidUTF8(true),
	jsontext.AllowDuplicateNames(true),
	jsontext.EscapeForHTML(false),
)

// Serialize renders o as compact JSON into buf and returns the number of bytes
// written. No terminator is appended and nothing beyond len(buf) is touched.
//
// When the rendering is longer than buf, buf is filled with its prefix (the cut
// may fall inside a token) and a *BufferTooSmallError is returned alongside
// n == len(buf). Callers can retry with a buffer of the reported Needed size.
//
// Nesting deeper than MaxDepth objects and arrays cannot be rendered and
// returns an error without writing anything.
func (o *Object) Serialize(buf []byte) (int, error) {
	data, err := o.Bytes()
	if err != nil {
		return 0, err
	}
	n := copy(buf, data)
	if n < len(data) {
		return n, &BufferTooSmallError{Written: n, Needed: len(data)}
	}
	return n, nil
}

// MeasureJSON returns the length of the compact rendering of o.
func (o *Object) MeasureJSON() (int, error) {
	data, err := o.Bytes()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Bytes returns the compact rendering of o.
func (o *Object) Bytes() ([]byte, error) {
	return json.Marshal(o, marshalOptions)
}

// AppendJSON appends the compact rendering of o to dst.
func (o *Object) AppendJSON(dst []byte) ([]byte, error) {
	data, err := o.Bytes()
	if err != nil {
		return dst, err
	}
	return append(dst, data...), nil
}

// MarshalJSONTo implements json.MarshalerTo.
func (o *Object) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return fmt.Errorf("write object open: %w", err)
	}
	for k, v := range o.All() {
		if err := enc.WriteToken(jsontext.String(k)); err != nil {
			return fmt.Errorf("write object key %q: %w", k, err)
		}
		// Nested errors are returned as is so deep documents keep short messages.
		if err := v.MarshalJSONTo(enc); err != nil {
			return err
		}
	}
	if err := enc.WriteToken(jsontext.EndObject); err != nil {
		return fmt.Errorf("write object close: %w", err)
	}
	return nil
}

// MarshalJSONTo implements json.MarshalerTo. NaN and infinite floats have no
// JSON form and are written as null.
func (v Value) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch v.kind {
	case KindNull:
		return enc.WriteToken(jsontext.Null)
	case KindBool:
		return enc.WriteToken(jsontext.Bool(v.b))
	case KindInt:
		return enc.WriteToken(jsontext.Int(v.i))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return enc.WriteToken(jsontext.Null)
		}
		return enc.WriteToken(jsontext.Float(v.f))
	case KindString:
		return enc.WriteToken(jsontext.String(v.s))
	case KindArray:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return fmt.Errorf("write array open: %w", err)
		}
		for _, elem := range v.arr {
			if err := elem.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		if err := enc.WriteToken(jsontext.EndArray); err != nil {
			return fmt.Errorf("write array close: %w", err)
		}
		return nil
	case KindObject:
		return v.obj.MarshalJSONTo(enc)
	}
	return fmt.Errorf("unknown value kind %s", v.kind)
}
