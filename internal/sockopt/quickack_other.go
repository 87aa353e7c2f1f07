//go:build !linux

package sockopt

import "net"

// quickAck is a no-op outside Linux; TCP_QUICKACK has no portable
// equivalent and is treated as an unavailable hint elsewhere.
func quickAck(tcpConn *net.TCPConn) {}
