package staticd

import "strings"

// 状态码
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

// defaultContentType 未知扩展名或没有扩展名时使用
const defaultContentType = "text/plain"

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusInternalServerError: "Internal Server Error",
	StatusServiceUnavailable:  "Service Unavailable",
}

// StatusText 返回状态码对应的原因短语，未知状态码统一返回 Internal Server Error
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return statusText[StatusInternalServerError]
}

// 扩展名区分大小写
var mimeTypes = map[string]string{
	"css":  "text/css",
	"csv":  "text/csv",
	"gif":  "image/gif",
	"htm":  "text/html",
	"html": "text/html",
	"ico":  "image/x-icon",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"js":   "text/javascript",
	"json": "application/json",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"swf":  "application/x-shockwave-flash",
	"txt":  "text/plain",
	"wasm": "application/wasm",
	"webm": "video/webm",
	"webp": "image/webp",
	"xml":  "text/xml",
	"zip":  "application/zip",
}

// ContentType 根据扩展名返回 MIME 类型
func ContentType(ext string) string {
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return defaultContentType
}

// extension 取路径最后一个 '.' 之后的部分，只看最后一级路径
func extension(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	i := strings.LastIndexByte(path, '.')
	if i == -1 {
		return ""
	}
	return path[i+1:]
}
