package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// MaxRequestLineSize bounds how many bytes are read looking for the
// request line.
const MaxRequestLineSize = 1024

// readRequestLine reads until the first LF within limit bytes. EOF or a
// full buffer before the LF is util.ErrIncompleteRequest; any other read
// failure is returned as is.
func readRequestLine(r io.Reader, limit int) (string, error) {
	buf := make([]byte, limit)
	n := 0
	for n < limit {
		m, err := r.Read(buf[n:])
		if m > 0 {
			if i := bytes.IndexByte(buf[n:n+m], '\n'); i >= 0 {
				return string(buf[:n+i]), nil
			}
			n += m
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: connection closed after %d bytes", util.ErrIncompleteRequest, n)
			}
			return "", err
		}
	}
	return "", fmt.Errorf("%w: no request line within %d bytes", util.ErrIncompleteRequest, limit)
}

// parseRequestLine splits "METHOD SP TARGET [SP PROTO]". The path is the
// target up to '?' or '#'; the query is kept for handlers and otherwise
// ignored.
func parseRequestLine(line string) (*router.Request, error) {
	line = strings.TrimRight(line, "\r")
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, fmt.Errorf("%w: malformed request line %q", util.ErrIncompleteRequest, line)
	}

	req := &router.Request{Method: fields[0]}
	if len(fields) == 3 {
		req.Proto = fields[2]
	}

	target := fields[1]
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}

	if !strings.HasPrefix(target, "/") {
		// absolute-form, e.g. sent to a proxy
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" {
			return nil, fmt.Errorf("%w: unsupported request target %q", util.ErrIncompleteRequest, fields[1])
		}
		req.Path = router.NormalizePath(u.EscapedPath())
		req.RawQuery = u.RawQuery
		return req, nil
	}

	path, query, _ := strings.Cut(target, "?")
	req.Path = router.NormalizePath(path)
	req.RawQuery = query
	return req, nil
}

// writeResponse writes the status line, Content-Length, the response
// headers, Connection: close, a blank line and the body. It returns the
// number of bytes written.
func writeResponse(w io.Writer, resp *router.Response) (int, error) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Unknown"
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 512)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason)
	fmt.Fprintf(bw, "Content-Length: %s\r\n", strconv.Itoa(len(resp.Body)))

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		switch http.CanonicalHeaderKey(k) {
		case "Content-Length", "Connection":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			fmt.Fprintf(bw, "%s: %s\r\n", http.CanonicalHeaderKey(k), sanitizeHeaderValue(v))
		}
	}
	_, _ = bw.WriteString("Connection: close\r\n\r\n")
	_, _ = bw.Write(resp.Body)

	// bufio.Writer reports the first write error on Flush.
	err := bw.Flush()
	return cw.n, err
}

func sanitizeHeaderValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
