package http1

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestAppendRequest_PostWithBody(t *testing.T) {
	fields := []Field{{Name: "host", Value: "h"}, {Name: "content-length", Value: "3"}}
	got := string(AppendRequest(nil, "POST", "/x", fields, []byte("abc"), true))
	want := "POST /x HTTP/1.1\r\nHost: h\r\nContent-Length: 3\r\n\r\nabc"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestAppendRequest_NoFields(t *testing.T) {
	got := string(AppendRequest(nil, "GET", "/", nil, nil, false))
	if got != "GET / HTTP/1.1\r\n\r\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAppendRequest_FoldsAdjacentDuplicates(t *testing.T) {
	fields := []Field{{Name: "a", Value: "1"}, {Name: "A", Value: "2"}, {Name: "b", Value: "3"}, {Name: "a", Value: "4"}}
	got := string(AppendRequest(nil, "GET", "/", fields, nil, false))
	want := "GET / HTTP/1.1\r\nA: 1;2\r\nB: 3\r\nA: 4\r\n\r\n"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestAppendRequest_StripsCRLFFromValues(t *testing.T) {
	fields := []Field{{Name: "x", Value: "a\r\nInjected: 1"}}
	got := string(AppendRequest(nil, "GET", "/", fields, nil, false))
	if strings.Contains(got, "\r\nInjected") {
		t.Fatalf("header injection not stripped: %q", got)
	}
}

func TestParseResponse_OK(t *testing.T) {
	pr, err := ParseResponse([]byte("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhello"))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if pr.StatusCode != 200 || pr.Reason != "OK" || pr.Proto != "HTTP/1.1" {
		t.Fatalf("status line = %q %d %q", pr.Proto, pr.StatusCode, pr.Reason)
	}
	if len(pr.Fields) != 1 || pr.Fields[0] != (Field{Name: "Content-Type", Value: "text/plain"}) {
		t.Fatalf("fields=%v", pr.Fields)
	}
	if string(pr.Body) != "hello" {
		t.Fatalf("body=%q", pr.Body)
	}
}

func TestParseResponse_BodyIsEverythingAfterFirstBlankLine(t *testing.T) {
	pr, err := ParseResponse([]byte("HTTP/1.0 404 Not Found\r\nA: b\r\nContent-Length: 2\r\n\r\nx\r\n\r\ny"))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if string(pr.Body) != "x\r\n\r\ny" {
		t.Fatalf("body=%q", pr.Body)
	}
}

func TestParseResponse_NoHeaders(t *testing.T) {
	pr, err := ParseResponse([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if pr.StatusCode != 204 || len(pr.Fields) != 0 || len(pr.Body) != 0 {
		t.Fatalf("got %+v", pr)
	}
}

func TestParseResponse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"garbage",
		"HTTP/1.1 200 OK\r\nA: b\r\n",
		"HTTP/2 200 OK\r\n\r\n",
		"HTTP/1.2 200 OK\r\n\r\n",
		"HTTP/1.1 abc OK\r\n\r\n",
		"HTTP/1.1 200 OK\r\nno-colon\r\n\r\n",
		"HTTP/1.1 200 OK\r\nBad(: v\r\n\r\n",
	} {
		if _, err := ParseResponse([]byte(raw)); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ParseResponse(%q) err=%v, want ErrMalformedResponse", raw, err)
		}
	}
}

func TestParseResponse_StatusOutOfRange(t *testing.T) {
	for _, raw := range []string{
		"HTTP/1.1 99 Low\r\n\r\n",
		"HTTP/1.1 600 High\r\n\r\n",
		"HTTP/1.1 99999999999999999999 Huge\r\n\r\n",
	} {
		if _, err := ParseResponse([]byte(raw)); !errors.Is(err, ErrStatusOutOfRange) {
			t.Errorf("ParseResponse(%q) err=%v, want ErrStatusOutOfRange", raw, err)
		}
	}
}

func TestRoundTrip_FieldsSurvive(t *testing.T) {
	req := AppendRequest(nil, "POST", "/", []Field{{Name: "a", Value: "1, 2"}, {Name: "b", Value: "x"}}, []byte("body"), true)
	// Reuse the request head as a response head to check the field codec.
	raw := append([]byte("HTTP/1.1 200 OK"), req[bytes.Index(req, []byte("\r\n")):]...)
	pr, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if v, _ := Lookup(pr.Fields, "a"); v != "1, 2" {
		t.Fatalf("a=%q", v)
	}
	if v, _ := Lookup(pr.Fields, "B"); v != "x" {
		t.Fatalf("b=%q", v)
	}
	if string(pr.Body) != "body" {
		t.Fatalf("body=%q", pr.Body)
	}
}

func TestReadMessage_ContentLength(t *testing.T) {
	wire := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhelloHTTP/1.1 204 No Content\r\n\r\n"
	br := bufio.NewReader(strings.NewReader(wire))
	msg, err := ReadMessage(br, 0, false)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello" {
		t.Fatalf("msg=%q", msg)
	}
	msg, err = ReadMessage(br, 0, false)
	if err != nil {
		t.Fatalf("second ReadMessage: %v", err)
	}
	if string(msg) != "HTTP/1.1 204 No Content\r\n\r\n" {
		t.Fatalf("msg=%q", msg)
	}
	if _, err := ReadMessage(br, 0, false); err != io.EOF {
		t.Fatalf("err=%v, want EOF", err)
	}
}

func TestReadMessage_NoBody(t *testing.T) {
	// The reply to HEAD advertises a length but carries no body; the next
	// message follows immediately.
	wire := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	br := bufio.NewReader(strings.NewReader(wire))
	msg, err := ReadMessage(br, 0, true)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n" {
		t.Fatalf("msg=%q", msg)
	}
	msg, err = ReadMessage(br, 0, false)
	if err != nil || string(msg) != "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok" {
		t.Fatalf("second msg=%q err=%v", msg, err)
	}
}

func TestReadMessage_Interim(t *testing.T) {
	wire := "HTTP/1.1 103 Early Hints\r\nLink: </a.css>\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\nx"
	br := bufio.NewReader(strings.NewReader(wire))
	msg, err := ReadMessage(br, 0, false)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if code := MessageStatus(msg); code != 103 {
		t.Fatalf("first status=%d", code)
	}
	msg, err = ReadMessage(br, 0, false)
	if err != nil {
		t.Fatalf("second ReadMessage: %v", err)
	}
	if code := MessageStatus(msg); code != 200 || !strings.HasSuffix(string(msg), "\r\n\r\nx") {
		t.Fatalf("second status=%d msg=%q", code, msg)
	}
	if code := MessageStatus([]byte("garbage\r\n\r\n")); code != 0 {
		t.Fatalf("garbage status=%d", code)
	}
}

func TestReadMessage_CloseDelimited(t *testing.T) {
	wire := "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\nuntil the end"
	msg, err := ReadMessage(bufio.NewReader(strings.NewReader(wire)), 0, false)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != wire {
		t.Fatalf("msg=%q", msg)
	}
}

func TestReadMessage_Truncated(t *testing.T) {
	wire := "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort"
	msg, err := ReadMessage(bufio.NewReader(strings.NewReader(wire)), 0, false)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err=%v, want ErrUnexpectedEOF", err)
	}
	if !strings.HasPrefix(string(msg), "HTTP/1.1 200 OK") {
		t.Fatalf("msg=%q", msg)
	}
}

func TestReadMessage_Limit(t *testing.T) {
	wire := "HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\n" + strings.Repeat("x", 100)
	if _, err := ReadMessage(bufio.NewReader(strings.NewReader(wire)), 64, false); err != ErrMessageTooLarge {
		t.Fatalf("err=%v, want ErrMessageTooLarge", err)
	}
}

func TestReadMessage_LongHeaderLine(t *testing.T) {
	long := strings.Repeat("v", 9000)
	wire := "HTTP/1.1 200 OK\r\nX-Long: " + long + "\r\nContent-Length: 2\r\n\r\nok"
	msg, err := ReadMessage(bufio.NewReaderSize(strings.NewReader(wire), 16), 0, false)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != wire {
		t.Fatalf("len(msg)=%d, want %d", len(msg), len(wire))
	}
}

func TestValidFieldName(t *testing.T) {
	for _, ok := range []string{"a", "Content-Type", "x#$%&'*+.^_`|~9"} {
		if !ValidFieldName(ok) {
			t.Errorf("ValidFieldName(%q)=false", ok)
		}
	}
	for _, bad := range []string{"", "a b", "a:b", "é", "a!", "(x)", "a\r"} {
		if ValidFieldName(bad) {
			t.Errorf("ValidFieldName(%q)=true", bad)
		}
	}
}

func TestCanonicalHeaderKey(t *testing.T) {
	if got := CanonicalHeaderKey("content-LENGTH"); got != "Content-Length" {
		t.Fatalf("got %q", got)
	}
	if got := CanonicalHeaderKey("x-request-id"); got != "X-Request-Id" {
		t.Fatalf("got %q", got)
	}
}

func TestWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := WriteResponse(bw, 200, "", []Field{{Name: "content-type", Value: "text/plain"}, {Name: "Content-Length", Value: "99"}}, []byte("hi"), false); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	bw.Flush()
	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\nConnection: close\r\n\r\nhi"
	if buf.String() != want {
		t.Fatalf("got %q", buf.String())
	}
}
