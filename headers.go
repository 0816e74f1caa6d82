package fetch

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/f0zi/fetch/internal/http1"
)

// Header is an ordered, case-insensitive header map. Names are stored
// lower-cased. Appending to an existing name joins the values with ", ";
// iteration follows the order in which names were first added.
//
// The zero value is an empty Header ready to use.
type Header struct {
	names  []string
	values map[string]string
}

// NewHeader builds a Header from name/value pairs, in order.
func NewHeader(pairs ...string) (*Header, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("fetch: NewHeader: odd number of arguments (%d)", len(pairs))
	}
	h := &Header{}
	for i := 0; i < len(pairs); i += 2 {
		if err := h.Append(pairs[i], pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func normalizeName(name string) (string, error) {
	if !http1.ValidFieldName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
	}
	return strings.ToLower(name), nil
}

func normalizeValue(value string) (string, error) {
	if !httpguts.ValidHeaderFieldValue(value) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHeaderValue, value)
	}
	return value, nil
}

// Append adds value under name, merging with any existing value.
func (h *Header) Append(name, value string) error {
	k, err := normalizeName(name)
	if err != nil {
		return err
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	if old, ok := h.values[k]; ok {
		h.values[k] = old + ", " + v
		return nil
	}
	h.put(k, v)
	return nil
}

// Set replaces the value of name. A new name goes to the end of the
// iteration order; an existing one keeps its position.
func (h *Header) Set(name, value string) error {
	k, err := normalizeName(name)
	if err != nil {
		return err
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	if _, ok := h.values[k]; ok {
		h.values[k] = v
		return nil
	}
	h.put(k, v)
	return nil
}

func (h *Header) put(k, v string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	h.names = append(h.names, k)
	h.values[k] = v
}

// Delete removes name.
func (h *Header) Delete(name string) error {
	k, err := normalizeName(name)
	if err != nil {
		return err
	}
	if _, ok := h.values[k]; !ok {
		return nil
	}
	delete(h.values, k)
	for i, n := range h.names {
		if n == k {
			h.names = append(h.names[:i], h.names[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the merged value of name.
func (h *Header) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[strings.ToLower(name)]
	return v, ok
}

// Has reports whether name is present.
func (h *Header) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// ForEach calls fn for every name in insertion order.
func (h *Header) ForEach(fn func(name, value string)) {
	if h == nil {
		return
	}
	for _, k := range h.names {
		fn(k, h.values[k])
	}
}

// Names returns the normalized names in insertion order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	return append([]string(nil), h.names...)
}

// Len returns the number of distinct names.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Clone returns an independent copy of h.
func (h *Header) Clone() *Header {
	c := &Header{}
	h.ForEach(func(name, value string) { c.put(name, value) })
	return c
}

func (h *Header) fields() []http1.Field {
	out := make([]http1.Field, 0, h.Len())
	h.ForEach(func(name, value string) {
		out = append(out, http1.Field{Name: name, Value: value})
	})
	return out
}

// String renders h one canonical "Name: value" line per name.
func (h *Header) String() string {
	var b strings.Builder
	h.ForEach(func(name, value string) {
		b.WriteString(http1.CanonicalHeaderKey(name))
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	})
	return b.String()
}
