package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse_Defaults(t *testing.T) {
	r, err := NewResponse("hi", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, r.Status)
	assert.Equal(t, "OK", r.StatusText)
	assert.Equal(t, "default", r.Type)
	assert.True(t, r.OK())

	r, err = NewResponse(nil, &ResponseInit{Status: 404})
	require.NoError(t, err)
	assert.Equal(t, 404, r.Status)
	assert.Equal(t, "", r.StatusText)
	assert.False(t, r.OK())
}

func TestResponse_OKRange(t *testing.T) {
	for status, ok := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 500: false} {
		r, err := NewResponse(nil, &ResponseInit{Status: status})
		require.NoError(t, err)
		assert.Equal(t, ok, r.OK(), status)
	}
}

func TestRedirect(t *testing.T) {
	for _, s := range []int{301, 302, 303, 307, 308} {
		r, err := Redirect("http://h/next", s)
		require.NoError(t, err, s)
		assert.Equal(t, s, r.Status)
		loc, ok := r.Header.Get("Location")
		assert.True(t, ok)
		assert.Equal(t, "http://h/next", loc)
	}
	for _, s := range []int{200, 300, 304, 404} {
		_, err := Redirect("http://h/next", s)
		assert.ErrorIs(t, err, ErrInvalidRedirectStatus, s)
	}
}

func TestErrorResponse(t *testing.T) {
	r := ErrorResponse()
	assert.Equal(t, 0, r.Status)
	assert.Equal(t, "error", r.Type)
	assert.False(t, r.OK())
	text, err := r.Text()
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestResponse_CloneAndReadOnce(t *testing.T) {
	h, _ := NewHeader("content-type", "text/plain")
	r, err := NewResponse("body", &ResponseInit{Status: 201, StatusText: "Created", Header: h})
	require.NoError(t, err)
	r.URL = "http://h/"

	c, err := r.Clone()
	require.NoError(t, err)
	assert.Equal(t, 201, c.Status)
	assert.Equal(t, "Created", c.StatusText)
	assert.Equal(t, "http://h/", c.URL)
	require.NoError(t, c.Header.Set("content-type", "text/html"))
	ct, _ := r.Header.Get("content-type")
	assert.Equal(t, "text/plain", ct)

	b, err := r.Blob()
	require.NoError(t, err)
	assert.Equal(t, "text/plain", b.Type())
	assert.Equal(t, "body", b.Text())

	_, err = r.Text()
	assert.ErrorIs(t, err, ErrAlreadyRead)
	_, err = r.Clone()
	assert.ErrorIs(t, err, ErrAlreadyRead)

	text, err := c.Text()
	require.NoError(t, err)
	assert.Equal(t, "body", text, "the clone reads independently")
}
