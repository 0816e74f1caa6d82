package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errChunkFormat = errors.New("http1: invalid chunk format")

// readChunked decodes a Transfer-Encoding: chunked body up to and
// including the trailer section. Only request bodies are decoded this way;
// the client never sends or expects chunked framing.
func readChunked(br *bufio.Reader, maxLine int, maxBody int64) ([]byte, error) {
	var body []byte
	for {
		line, err := readLineLimit(br, maxLine)
		if err != nil {
			return nil, err
		}
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, errChunkFormat
		}
		n, err := strconv.ParseInt(line, 16, 64)
		if err != nil || n < 0 {
			return nil, errChunkFormat
		}
		if n == 0 {
			break
		}
		if maxBody > 0 && int64(len(body))+n > maxBody {
			return nil, ErrBodyTooLarge
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		body = append(body, chunk...)
		if err := expectCRLF(br); err != nil {
			return nil, err
		}
	}
	// Trailers are read and dropped.
	for {
		line, err := readLineLimit(br, maxLine)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return body, nil
		}
	}
}

func expectCRLF(br *bufio.Reader) error {
	b1, err := br.ReadByte()
	if err != nil {
		return err
	}
	b2, err := br.ReadByte()
	if err != nil {
		return err
	}
	if b1 != '\r' || b2 != '\n' {
		return fmt.Errorf("http1: expected CRLF after chunk, got %q%q", b1, b2)
	}
	return nil
}
