//go:build !unix

package staticd

import "syscall"

func controlListener(network, address string, rawConn syscall.RawConn) error {
	return nil
}
