package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Blob is an immutable chunk of bytes with a media type.
type Blob struct {
	data []byte
	typ  string
}

// NewBlob copies data into a new Blob.
func NewBlob(data []byte, typ string) *Blob {
	return &Blob{data: append([]byte(nil), data...), typ: typ}
}

func (b *Blob) Size() int    { return len(b.data) }
func (b *Blob) Type() string { return b.typ }

// Bytes returns a copy of the blob's content.
func (b *Blob) Bytes() []byte { return append([]byte(nil), b.data...) }

// Text returns the content as a string.
func (b *Blob) Text() string { return string(b.data) }

// body is the payload shared by Request and Response. It can be read once.
type body struct {
	mu      sync.Mutex
	data    []byte
	present bool
	typ     string // media type of a Blob init value
	used    bool
}

// newBody converts a body init value. Accepted: nil, string, []byte,
// io.Reader and *Blob.
func newBody(v interface{}) (*body, error) {
	switch x := v.(type) {
	case nil:
		return &body{}, nil
	case string:
		return &body{data: []byte(x), present: true}, nil
	case []byte:
		return &body{data: append([]byte(nil), x...), present: true}, nil
	case *Blob:
		if x == nil {
			return &body{}, nil
		}
		return &body{data: x.Bytes(), present: true, typ: x.typ}, nil
	case io.Reader:
		b, err := io.ReadAll(x)
		if err != nil {
			return nil, fmt.Errorf("fetch: reading body: %w", err)
		}
		return &body{data: b, present: true}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBodyType, v)
	}
}

// consume marks the body used and returns its bytes.
func (b *body) consume() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.used {
		return nil, ErrAlreadyRead
	}
	b.used = true
	return b.data, nil
}

func (b *body) isUsed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// share returns a body over the same bytes with a fresh read guard.
func (b *body) share() *body {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &body{data: b.data, present: b.present, typ: b.typ}
}

// bodyReader holds the one-shot readers common to Request and Response.
type bodyReader struct {
	b       *body
	mimeTyp func() string
}

// BodyUsed reports whether the body has been read.
func (r bodyReader) BodyUsed() bool { return r.b.isUsed() }

// Text reads the body as a string.
func (r bodyReader) Text() (string, error) {
	p, err := r.b.consume()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// Bytes reads the body as raw bytes.
func (r bodyReader) Bytes() ([]byte, error) {
	p, err := r.b.consume()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}

// JSON reads the body and decodes it into v.
func (r bodyReader) JSON(v interface{}) error {
	p, err := r.b.consume()
	if err != nil {
		return err
	}
	return json.Unmarshal(p, v)
}

// Blob reads the body into a Blob typed after the Content-Type header.
func (r bodyReader) Blob() (*Blob, error) {
	p, err := r.b.consume()
	if err != nil {
		return nil, err
	}
	typ := r.b.typ
	if r.mimeTyp != nil {
		if v := r.mimeTyp(); v != "" {
			typ = v
		}
	}
	return NewBlob(p, typ), nil
}
