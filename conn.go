package staticd

import (
	"bufio"
	"errors"
	"io"
	"net"
	"runtime/debug"
)

// conn 一个已接受的连接，serve只执行一次，结束时总是关闭连接
type conn struct {
	svc    *Server           // server对象
	rwc    net.Conn          // tcp 连接
	lr     *io.LimitedReader // 限制请求头的最大尺寸
	bw     *bufio.Writer     // 缓存写入
	br     *bufio.Reader     // 缓存读取
	closed bool
}

func newConn(svc *Server, rwc net.Conn) *conn {
	lr := &io.LimitedReader{R: rwc, N: svc.maxHeaderBytes()}
	return &conn{
		svc: svc,
		rwc: rwc,
		lr:  lr,
		br:  bufio.NewReader(lr),
		bw:  bufio.NewWriter(rwc),
	}
}

// serve 读请求头 -> 解析 -> 定位文件 -> 响应 -> 关闭
func (c *conn) serve() {
	defer func() {
		// 处理错误
		if err := recover(); err != nil {
			c.svc.logf("staticd: panic serving %s: %v\n%s", c.remoteAddr(), err, debug.Stack())
		}
		// 关闭tcp连接
		c.close()
	}()

	req, err := c.readRequest()
	if err != nil {
		// 输入流已经断开，不发送响应
		c.svc.logf("staticd: read request from %s: %v", c.remoteAddr(), err)
		return
	}
	resp := setupResponse(c, req)
	if err = c.handle(resp); err != nil {
		c.svc.logf("staticd: serving %s %q to %s: %v", req.Method, req.RequestURI, req.RemoteAddr, err)
		// 还没有写出任何内容时尽量返回500
		_ = resp.sendError(StatusInternalServerError)
	}
}

// readRequest 从连接中读取请求头
func (c *conn) readRequest() (*Request, error) {
	header, err := readHeader(c.br)
	if err != nil {
		return nil, err
	}
	r := &Request{Header: header, RemoteAddr: c.remoteAddr()}
	var ok bool
	r.Method, r.RequestURI, ok = splitMethodAndURI(header)
	if ok {
		r.Path = stripQuery(r.RequestURI)
	}
	return r, nil
}

func (c *conn) handle(resp *response) error {
	req := resp.req
	if !allowedMethod(req.Method) {
		return resp.sendError(StatusMethodNotAllowed)
	}
	if req.Path == "" {
		return resp.sendError(StatusBadRequest)
	}
	name, err := c.svc.resolver.resolve(req.Path)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return resp.sendError(se.code)
		}
		return err
	}
	return resp.sendFile(name)
}

func (c *conn) remoteAddr() string {
	if addr := c.rwc.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// close 刷新缓冲并关闭tcp连接，可重复调用
func (c *conn) close() {
	if c.closed {
		return
	}
	c.closed = true
	defer func() {
		if err := recover(); err != nil {
			c.svc.logf("staticd: panic closing %s: %v", c.remoteAddr(), err)
		}
	}()
	if err := c.bw.Flush(); err != nil {
		c.svc.logf("staticd: flush %s: %v", c.remoteAddr(), err)
	}
	_ = c.rwc.Close()
}
