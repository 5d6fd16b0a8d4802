package staticd

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// OverflowPolicy 队列满时acceptor的行为
type OverflowPolicy string

const (
	// OverflowBlock 阻塞acceptor，暂停接受新连接
	OverflowBlock OverflowPolicy = "block"
	// OverflowReject 直接返回503并关闭连接
	OverflowReject OverflowPolicy = "reject"
)

// Config 启动时确定，运行期间不变
type Config struct {
	Addr           string         // 监听地址
	Root           string         // 文档根目录
	IndexFile      string         // 目录请求使用的文件名
	ServerName     string         // Server响应头
	Workers        int            // worker数量
	QueueSize      int            // 等待队列容量
	Overflow       OverflowPolicy // 队列满时的策略
	MaxHeaderBytes int64          // 请求头最大字节数
}

func DefaultConfig() Config {
	return Config{
		Addr:           ":80",
		Root:           "./",
		IndexFile:      "index.html",
		ServerName:     "staticd",
		Workers:        4,
		QueueSize:      256,
		Overflow:       OverflowBlock,
		MaxHeaderBytes: 1 << 20,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.MaxHeaderBytes <= 0 {
		errs = append(errs, fmt.Errorf("max header bytes must be positive, got %d", c.MaxHeaderBytes))
	}
	if c.Root == "" {
		errs = append(errs, errors.New("document root is empty"))
	}
	if c.IndexFile == "" || strings.ContainsAny(c.IndexFile, `/\`) {
		errs = append(errs, fmt.Errorf("invalid index file %q", c.IndexFile))
	}
	switch c.Overflow {
	case OverflowBlock, OverflowReject:
	default:
		errs = append(errs, fmt.Errorf("unknown overflow policy %q", c.Overflow))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("staticd: invalid config: %w", err)
	}
	return nil
}

// LoadEnv 用环境变量覆盖配置，lookup一般传os.LookupEnv
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Addr = net.JoinHostPort("", port)
	}
	if v, ok := lookup("STATICD_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("STATICD_ROOT"); ok && v != "" {
		c.Root = v
	}
	if v, ok := lookup("STATICD_INDEX"); ok && v != "" {
		c.IndexFile = v
	}
	if v, ok := lookup("STATICD_OVERFLOW"); ok && v != "" {
		c.Overflow = OverflowPolicy(strings.ToLower(v))
	}
	for _, kv := range []struct {
		key string
		dst *int
	}{
		{"STATICD_WORKERS", &c.Workers},
		{"STATICD_QUEUE", &c.QueueSize},
	} {
		v, ok := lookup(kv.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("staticd: %s: %w", kv.key, err)
		}
		*kv.dst = n
	}
	return nil
}
