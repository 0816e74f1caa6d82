package http1

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ErrMessageTooLarge is returned by ReadMessage when a message exceeds the
// configured limit.
var ErrMessageTooLarge = errors.New("http1: message too large")

// ReadMessage reads one complete response message from br and returns its
// raw bytes. The body length comes from Content-Length; 1xx, 204 and 304
// responses have no body; otherwise the body runs until the peer closes.
// noBody marks the reply to a HEAD request, which ends after its header
// whatever Content-Length says.
//
// limit caps the total message size when positive. If the stream ends
// before the message is complete, the bytes read so far are returned
// together with io.ErrUnexpectedEOF. A clean end of stream before any byte
// yields io.EOF.
func ReadMessage(br *bufio.Reader, limit int64, noBody bool) ([]byte, error) {
	var buf bytes.Buffer
	first := true
	code := 0
	cl := int64(-1)
	for {
		line, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			// Long line: keep reading until the newline.
			buf.Write(line)
			if limit > 0 && int64(buf.Len()) > limit {
				return buf.Bytes(), ErrMessageTooLarge
			}
			continue
		}
		if err != nil {
			if err == io.EOF && buf.Len() == 0 && len(line) == 0 {
				return nil, io.EOF
			}
			buf.Write(line)
			return buf.Bytes(), io.ErrUnexpectedEOF
		}
		start := buf.Len()
		buf.Write(line)
		if limit > 0 && int64(buf.Len()) > limit {
			return buf.Bytes(), ErrMessageTooLarge
		}
		text := strings.TrimRight(string(buf.Bytes()[lineStart(buf.Bytes(), start):]), "\r\n")
		if first {
			first = false
			if _, c, _, err := parseStatusLine(text); err == nil {
				code = c
			}
			continue
		}
		if text == "" {
			break
		}
		if i := strings.IndexByte(text, ':'); i > 0 && strings.EqualFold(strings.TrimSpace(text[:i]), "Content-Length") {
			if n, err := strconv.ParseInt(strings.TrimSpace(text[i+1:]), 10, 64); err == nil && n >= 0 {
				cl = n
			}
		}
	}

	switch {
	case noBody || (code >= 100 && code < 200) || code == 204 || code == 304:
		return buf.Bytes(), nil
	case cl >= 0:
		if limit > 0 && int64(buf.Len())+cl > limit {
			return buf.Bytes(), ErrMessageTooLarge
		}
		if _, err := io.CopyN(&buf, br, cl); err != nil {
			return buf.Bytes(), io.ErrUnexpectedEOF
		}
		return buf.Bytes(), nil
	default:
		var r io.Reader = br
		if limit > 0 {
			r = io.LimitReader(br, limit-int64(buf.Len())+1)
		}
		if _, err := io.Copy(&buf, r); err != nil {
			return buf.Bytes(), err
		}
		if limit > 0 && int64(buf.Len()) > limit {
			return buf.Bytes(), ErrMessageTooLarge
		}
		return buf.Bytes(), nil
	}
}

// MessageStatus returns the status code of a message read by ReadMessage,
// or 0 if its status line does not parse.
func MessageStatus(msg []byte) int {
	line := msg
	if i := bytes.IndexByte(msg, '\n'); i >= 0 {
		line = msg[:i]
	}
	_, code, _, err := parseStatusLine(strings.TrimRight(string(line), "\r"))
	if err != nil {
		return 0
	}
	return code
}

// lineStart finds where the line ending at the tail of b begins. Lines
// longer than the bufio buffer arrive in pieces, so the caller's offset can
// point into the middle of a line.
func lineStart(b []byte, from int) int {
	i := bytes.LastIndexByte(b[:from], '\n')
	return i + 1
}
