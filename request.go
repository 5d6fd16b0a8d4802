package staticd

import (
	"bufio"
	"errors"
	"strings"
)

// errNoTerminator 对端在请求头结束前断开
var errNoTerminator = errors.New("staticd: header terminator not found")

// errEmptyRequest 请求行为空，直接关闭连接
var errEmptyRequest = errors.New("staticd: empty request line")

// Request 一次请求解析后的结果
type Request struct {
	Method     string // 请求方法
	RequestURI string // 请求行里的原始uri
	Path       string // 去掉query后的路径，尚未解码
	Header     string // 完整的请求头
	RemoteAddr string // 客户端地址
}

// readHeader 按行读取请求头直到空行，各行用\n拼接
func readHeader(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		line, err := readline(br)
		if err != nil {
			// 没读到空行就结束了，不再尝试响应
			return sb.String(), errors.Join(errNoTerminator, err)
		}
		// 读到空行表示请求头结束，第一行就是空行说明没有请求行
		if len(line) == 0 {
			if sb.Len() == 0 {
				return "", errEmptyRequest
			}
			return sb.String(), nil
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
}

// readline 读取一行数据
func readline(br *bufio.Reader) ([]byte, error) {
	line, prefix, err := br.ReadLine()
	if err != nil {
		return line, err
	}
	// prefix是为了防止一行数据超过设置的缓存大小还没读完。
	// line指向br的内部缓存，拼接前先复制一份
	if prefix {
		line = append([]byte(nil), line...)
	}
	var l []byte
	for prefix {
		l, prefix, err = br.ReadLine()
		if err != nil {
			break
		}
		line = append(line, l...)
	}
	return line, err
}

// splitMethodAndURI 方法是第一个空格之前的内容，uri从第一个'/'开始到其后的空格为止。
// 只看请求行，其余请求头不做解释
func splitMethodAndURI(header string) (method, uri string, ok bool) {
	if i := strings.IndexByte(header, '\n'); i != -1 {
		header = header[:i]
	}
	sp := strings.IndexByte(header, ' ')
	if sp == -1 {
		return header, "", false
	}
	method = header[:sp]
	start := strings.IndexByte(header, '/')
	if start == -1 {
		return method, "", false
	}
	end := strings.IndexByte(header[start:], ' ')
	if end == -1 {
		return method, "", false
	}
	return method, header[start : start+end], true
}

// stripQuery 去掉?之后的query参数
func stripQuery(uri string) string {
	if i := strings.IndexByte(uri, '?'); i != -1 {
		return uri[:i]
	}
	return uri
}

// allowedMethod 只支持GET和HEAD
func allowedMethod(method string) bool {
	return method == "GET" || method == "HEAD"
}
