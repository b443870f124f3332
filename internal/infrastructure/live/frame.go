package live

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// STOMP commands used by the subscriber.
const (
	CmdConnect   = "CONNECT"
	CmdConnected = "CONNECTED"
	CmdSubscribe = "SUBSCRIBE"
	CmdMessage   = "MESSAGE"
	CmdError     = "ERROR"
)

var errMalformedFrame = errors.New("malformed stomp frame")

// Frame is a single STOMP 1.2 frame.
type Frame struct {
	Command string
	Header  map[string]string
	Body    []byte
}

// NewFrame builds a frame from alternating header keys and values.
func NewFrame(command string, kv ...string) Frame {
	f := Frame{Command: command, Header: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Header[kv[i]] = kv[i+1]
	}
	return f
}

// IsHeartbeat reports whether the frame was an empty keep-alive line.
func (f Frame) IsHeartbeat() bool {
	return f.Command == ""
}

var (
	headerEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, ":", `\c`)
	headerUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r", `\n`, "\n", `\c`, ":")
)

// escapes reports whether header values are escaped for command. CONNECT
// and CONNECTED frames are exempt for 1.0 compatibility.
func escapes(command string) bool {
	return command != CmdConnect && command != CmdConnected
}

// Marshal encodes the frame including the trailing NUL. Headers are written
// in sorted order.
func (f Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')

	keys := make([]string, 0, len(f.Header))
	for k := range f.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := f.Header[k]
		if escapes(f.Command) {
			k, v = headerEscaper.Replace(k), headerEscaper.Replace(v)
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		if _, ok := f.Header["content-length"]; !ok {
			fmt.Fprintf(&b, "content-length:%d\n", len(f.Body))
		}
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// ParseFrame decodes one frame. A payload of only end-of-line characters
// is a heartbeat and yields a Frame with an empty Command.
func ParseFrame(data []byte) (Frame, error) {
	if len(bytes.Trim(data, "\r\n\x00")) == 0 {
		return Frame{}, nil
	}
	data = bytes.TrimLeft(data, "\r\n")

	headEnd := bytes.Index(data, []byte("\n\n"))
	sep := 2
	if crlf := bytes.Index(data, []byte("\r\n\r\n")); crlf >= 0 && (headEnd < 0 || crlf < headEnd) {
		headEnd, sep = crlf, 4
	}
	if headEnd < 0 {
		return Frame{}, fmt.Errorf("%w: missing header terminator", errMalformedFrame)
	}

	lines := strings.Split(strings.ReplaceAll(string(data[:headEnd]), "\r\n", "\n"), "\n")
	f := Frame{Command: lines[0], Header: make(map[string]string, len(lines)-1)}
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return Frame{}, fmt.Errorf("%w: header %q", errMalformedFrame, line)
		}
		if escapes(f.Command) {
			k, v = headerUnescaper.Replace(k), headerUnescaper.Replace(v)
		}
		// Repeated headers: the first one wins.
		if _, seen := f.Header[k]; !seen {
			f.Header[k] = v
		}
	}

	body := data[headEnd+sep:]
	if n, ok := f.Header["content-length"]; ok {
		size, err := strconv.Atoi(n)
		if err != nil || size < 0 || size > len(body) {
			return Frame{}, fmt.Errorf("%w: content-length %q", errMalformedFrame, n)
		}
		body = body[:size]
	} else if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	f.Body = body
	return f, nil
}
