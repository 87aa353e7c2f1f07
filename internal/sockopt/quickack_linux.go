//go:build linux

package sockopt

import (
	"net"

	"golang.org/x/sys/unix"
)

// quickAck asks the kernel to ACK immediately rather than delaying, which
// matters for the small control messages (SET_VAR, NET_FEEDBACK) that share
// the stream with bulk frame data.
func quickAck(tcpConn *net.TCPConn) {
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		log.Debug("quick-ack unavailable", "error", err)
		return
	}

	ctrlErr := rawConn.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1); err != nil {
			log.Debug("set quick-ack failed", "error", err)
		}
	})
	if ctrlErr != nil {
		log.Debug("quick-ack control failed", "error", ctrlErr)
	}
}
