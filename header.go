package staticd

import (
	"io"
	"strconv"
	"time"
)

// timeFormat RFC1123格式，时区固定为GMT
const timeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// responseHeader 构造后只写一次，不再修改
type responseHeader struct {
	code          int
	date          time.Time
	server        string
	contentLength int64
	contentType   string
}

func newResponseHeader(code int, server, contentType string, length int64) responseHeader {
	return responseHeader{
		code:          code,
		date:          time.Now(),
		server:        server,
		contentLength: length,
		contentType:   contentType,
	}
}

// bytes 按固定顺序拼出响应头
func (h responseHeader) bytes() []byte {
	b := make([]byte, 0, 160)
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(h.code), 10)
	b = append(b, ' ')
	b = append(b, StatusText(h.code)...)
	b = append(b, "\r\nDate: "...)
	b = h.date.UTC().AppendFormat(b, timeFormat)
	b = append(b, "\r\nServer: "...)
	b = append(b, h.server...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, h.contentLength, 10)
	b = append(b, "\r\nContent-Type: "...)
	b = append(b, h.contentType...)
	b = append(b, "\r\nConnection: close\r\n\r\n"...)
	return b
}

func (h responseHeader) writeTo(w io.Writer) error {
	_, err := w.Write(h.bytes())
	return err
}
