// Package transport frames a reliable ordered byte stream into discrete
// messages: an 8-byte little-endian length prefix followed by exactly that
// many payload bytes. A Transport owns exactly one net.Conn and runs a
// single send worker and a single receive worker over it, matching the
// sole-writer/sole-reader concurrency model the streaming engine requires.
package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pauloswear/deskstream/internal/logging"
	"github.com/pauloswear/deskstream/internal/sockopt"
)

const (
	headerSize = 8

	// maxPayloadSize is the framing-error sanity limit (§7): a length
	// prefix beyond this is treated as corruption, not a huge legitimate
	// message. Comfortably above any single frame this protocol emits.
	maxPayloadSize = 256 * 1024 * 1024

	sendQueueDepth = 64
	recvQueueDepth = 64
)

var log = logging.L("transport")

// ErrClosed is returned by Send once the transport has been stopped.
var ErrClosed = errors.New("transport: closed")

// ErrFrameTooLarge is a framing error: the peer announced a payload longer
// than maxPayloadSize.
var ErrFrameTooLarge = errors.New("transport: frame exceeds sanity limit")

// Transport frames payloads over a single net.Conn. Send is safe to call
// from any number of goroutines; all writes are serialized through an
// internal queue so at most one goroutine ever touches the socket for
// writing, and likewise for reading.
type Transport struct {
	conn net.Conn

	sendCh chan []byte
	recvCh chan []byte

	done      chan struct{}
	closeOnce sync.Once

	errVal atomic.Value // stores error
}

// New wraps conn, applies socket tuning hints, and starts the send and
// receive workers. The caller must call Stop to release resources.
func New(conn net.Conn) *Transport {
	sockopt.Tune(conn)

	t := &Transport{
		conn:   conn,
		sendCh: make(chan []byte, sendQueueDepth),
		recvCh: make(chan []byte, recvQueueDepth),
		done:   make(chan struct{}),
	}

	go t.sendLoop()
	go t.recvLoop()

	return t
}

// Send enqueues payload for transmission and returns once it is durably
// queued — not once it has actually reached the wire. At-most-one
// concurrent writer is guaranteed internally; callers may call Send
// concurrently from many goroutines.
func (t *Transport) Send(payload []byte) error {
	select {
	case t.sendCh <- payload:
		return nil
	case <-t.done:
		return ErrClosed
	}
}

// Recv returns the channel of fully-framed received payloads, in
// transmission order. The channel is closed when the connection ends; call
// Err afterward to distinguish a clean close from a failure.
func (t *Transport) Recv() <-chan []byte {
	return t.recvCh
}

// Err returns the error that ended the connection, or nil if it has not
// ended or ended cleanly (peer EOF).
func (t *Transport) Err() error {
	if v := t.errVal.Load(); v != nil {
		return v.(errBox).err
	}
	return nil
}

// Stop terminates the connection: it signals both workers to exit, then
// closes the socket, which unblocks any worker blocked in a read or write
// syscall. Safe to call more than once and from any goroutine.
func (t *Transport) Stop() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.conn.Close()
	})
}

// fail records the first error that ended the connection, if any, and tears
// the transport down. Passing nil records a clean close (peer EOF) without
// storing an error.
func (t *Transport) fail(err error) {
	if err != nil && t.errVal.Load() == nil {
		t.errVal.Store(errBox{err})
	}
	t.Stop()
}

// errBox lets atomic.Value hold an error without requiring every stored
// value to share the exact same concrete error type.
type errBox struct{ err error }

func (t *Transport) sendLoop() {
	for {
		select {
		case <-t.done:
			return
		case payload := <-t.sendCh:
			if err := writeFrame(t.conn, payload); err != nil {
				log.Warn("write failed", "error", err)
				t.fail(fmt.Errorf("transport write: %w", err))
				return
			}
		}
	}
}

func (t *Transport) recvLoop() {
	defer close(t.recvCh)

	reader := bufio.NewReaderSize(t.conn, 64*1024)
	header := make([]byte, headerSize)

	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			if !errors.Is(err, io.EOF) && !isClosedErr(err) {
				log.Warn("read header failed", "error", err)
				t.fail(fmt.Errorf("transport read header: %w", err))
			} else {
				t.fail(nil)
			}
			return
		}

		length := binary.LittleEndian.Uint64(header)
		if length > maxPayloadSize {
			log.Warn("frame too large", "length", length)
			t.fail(ErrFrameTooLarge)
			return
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			log.Warn("read payload failed", "error", err)
			t.fail(fmt.Errorf("transport read payload: %w", err))
			return
		}

		select {
		case t.recvCh <- payload:
		case <-t.done:
			return
		}
	}
}

// writeFrame writes the 8-byte length header and payload as a single
// contiguous write so Nagle being disabled doesn't split one message into
// two packets.
func writeFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint64(buf, uint64(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
