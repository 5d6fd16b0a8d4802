package staticd

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrServerClosed Close之后Serve和ListenAndServe返回此错误
var ErrServerClosed = errors.New("staticd: server closed")

// Server 一个acceptor加固定大小的工作池
type Server struct {
	Config   Config
	ErrorLog *log.Logger // 为nil时使用log包的默认logger

	resolver   *resolver
	pool       *workerPool
	mu         sync.Mutex
	listener   net.Listener
	inShutdown atomic.Bool
}

func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r, err := newResolver(cfg.Root, cfg.IndexFile)
	if err != nil {
		return nil, err
	}
	svc := &Server{Config: cfg, resolver: r}
	svc.pool = newWorkerPool(cfg.Workers, cfg.QueueSize, cfg.Overflow, svc.logf)
	return svc, nil
}

// ListenAndServe 绑定失败直接返回，不做重试
func (svc *Server) ListenAndServe() error {
	if svc.shuttingDown() {
		return ErrServerClosed
	}
	l, err := Listen(svc.Config.Addr)
	if err != nil {
		return err
	}
	return svc.Serve(l)
}

// Listen 创建tcp监听，设置了SO_REUSEADDR
func Listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: controlListener}
	return lc.Listen(context.Background(), "tcp", addr)
}

// Serve 不断接受新连接并提交给工作池，自身从不处理请求
func (svc *Server) Serve(l net.Listener) error {
	svc.mu.Lock()
	if svc.shuttingDown() {
		svc.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	svc.listener = l
	svc.mu.Unlock()
	defer l.Close()

	svc.pool.Start()
	var tempDelay time.Duration
	for {
		rwc, err := l.Accept()
		if err != nil {
			if svc.shuttingDown() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				svc.logf("staticd: accept error: %v; retrying in %v", err, tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0
		c := newConn(svc, rwc)
		if err = svc.pool.Submit(c.serve); err != nil {
			svc.refuse(c, err)
		}
	}
}

// refuse 工作池不接收时由acceptor直接回复并关闭
func (svc *Server) refuse(c *conn, err error) {
	if errors.Is(err, ErrQueueFull) {
		h := newResponseHeader(StatusServiceUnavailable, svc.serverName(), defaultContentType, 0)
		_ = h.writeTo(c.bw)
	}
	c.close()
}

// Close 关闭监听，已排队的连接仍会处理完
func (svc *Server) Close() error {
	svc.inShutdown.Store(true)
	svc.mu.Lock()
	l := svc.listener
	svc.mu.Unlock()
	var err error
	if l != nil {
		err = l.Close()
	}
	svc.pool.Close()
	return err
}

// Wait 在Close之后等待所有worker退出
func (svc *Server) Wait() { svc.pool.Wait() }

// Addr 返回实际监听的地址，未开始监听时为nil
func (svc *Server) Addr() net.Addr {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.listener == nil {
		return nil
	}
	return svc.listener.Addr()
}

func (svc *Server) shuttingDown() bool { return svc.inShutdown.Load() }

func (svc *Server) logf(format string, args ...any) {
	if svc.ErrorLog != nil {
		svc.ErrorLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (svc *Server) serverName() string { return svc.Config.ServerName }

func (svc *Server) maxHeaderBytes() int64 { return svc.Config.MaxHeaderBytes }
