//go:build unix

package staticd

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlListener 监听前设置SO_REUSEADDR，重启时不必等待TIME_WAIT
func controlListener(network, address string, rawConn syscall.RawConn) error {
	var serr error
	err := rawConn.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
