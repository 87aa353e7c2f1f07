// Package sockopt applies the low-latency socket hints the transport layer
// wants: Nagle disabled, generous buffer hints, and quick-ACK where the
// platform supports it. Every call here is a hint — failures are logged and
// otherwise ignored, never propagated, per the transport's socket tuning
// contract.
package sockopt

import (
	"net"

	"github.com/pauloswear/deskstream/internal/logging"
)

const bufferSizeHint = 256 * 1024

var log = logging.L("sockopt")

// Tune applies Nagle-disable, buffer-size, and quick-ACK hints to conn if it
// is a *net.TCPConn. Non-TCP connections (e.g. in tests, net.Pipe) are left
// untouched.
func Tune(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}

	if err := tcpConn.SetNoDelay(true); err != nil {
		log.Debug("set no delay failed", "error", err)
	}
	if err := tcpConn.SetReadBuffer(bufferSizeHint); err != nil {
		log.Debug("set read buffer failed", "error", err)
	}
	if err := tcpConn.SetWriteBuffer(bufferSizeHint); err != nil {
		log.Debug("set write buffer failed", "error", err)
	}

	quickAck(tcpConn)
}
