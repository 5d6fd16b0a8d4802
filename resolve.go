package staticd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// statusError 把解析或定位阶段的错误映射到状态码
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("staticd: %d %s: %v", e.code, StatusText(e.code), e.err)
}

func (e *statusError) Unwrap() error { return e.err }

func withStatus(code int, err error) error {
	return &statusError{code: code, err: err}
}

var (
	errTraversal    = errors.New("path escapes document root")
	errIndexMissing = errors.New("directory has no index file")
)

// resolver 把请求路径映射到文档根目录下的文件
type resolver struct {
	root      string // 绝对路径，已解析符号链接
	indexFile string
}

func newResolver(root, indexFile string) (*resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("staticd: document root %q: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &resolver{root: abs, indexFile: indexFile}, nil
}

// resolve 返回要发送的文件路径。
// 顺序：文本../检查，解码，词法越界检查，stat，目录补index，符号链接越界检查
func (r *resolver) resolve(uriPath string) (string, error) {
	if strings.Contains(uriPath, "../") {
		return "", withStatus(StatusForbidden, errTraversal)
	}
	decoded, err := url.PathUnescape(uriPath)
	if err != nil {
		return "", withStatus(StatusBadRequest, err)
	}
	// 解码后可能出现 %2e%2e/ 之类的越界路径
	name, ok := r.within(decoded)
	if !ok {
		return "", withStatus(StatusForbidden, errTraversal)
	}

	info, err := os.Stat(name)
	if err != nil {
		return "", statError(err)
	}
	if info.IsDir() {
		name = filepath.Join(name, r.indexFile)
		info, err = os.Stat(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", withStatus(StatusForbidden, errIndexMissing)
			}
			return "", statError(err)
		}
		if info.IsDir() {
			return "", withStatus(StatusForbidden, errIndexMissing)
		}
	}

	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", statError(err)
	}
	if !r.contains(resolved) {
		return "", withStatus(StatusForbidden, errTraversal)
	}
	return name, nil
}

// within 纯词法检查，不访问文件系统
func (r *resolver) within(decoded string) (string, bool) {
	if strings.IndexByte(decoded, 0) != -1 {
		return "", false
	}
	name := filepath.Join(r.root, filepath.FromSlash(decoded))
	return name, r.contains(name)
}

func (r *resolver) contains(name string) bool {
	rel, err := filepath.Rel(r.root, name)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func statError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return withStatus(StatusNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return withStatus(StatusForbidden, err)
	}
	return err
}
