package staticd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type response struct {
	c   *conn
	req *Request

	// 是否已经写出过响应头
	wroteHeader bool
}

func setupResponse(c *conn, req *Request) *response {
	return &response{c: c, req: req}
}

// writeHeader 响应头只写一次
func (w *response) writeHeader(code int, contentType string, length int64) error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	h := newResponseHeader(code, w.c.svc.serverName(), contentType, length)
	return h.writeTo(w.c.bw)
}

// sendError 只有响应头，没有主体
func (w *response) sendError(code int) error {
	return w.writeHeader(code, defaultContentType, 0)
}

// sendFile 先打开文件再写响应头，HEAD请求不发送主体
func (w *response) sendFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("staticd: open %s: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("staticd: stat %s: %w", name, err)
	}
	size := info.Size()
	if err = w.writeHeader(StatusOK, ContentType(extension(filepath.Base(name))), size); err != nil {
		return err
	}
	if w.req.Method != "GET" {
		return nil
	}
	// 按Content-Length发送，文件在此期间变短会返回错误
	if _, err = io.CopyN(w.c.bw, f, size); err != nil {
		return fmt.Errorf("staticd: send %s: %w", name, err)
	}
	return nil
}
