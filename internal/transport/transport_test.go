package transport

import (
	"net"
	"testing"
	"time"
)

func TestSendRecvRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	tx := New(server)
	rx := New(client)
	defer tx.Stop()
	defer rx.Stop()

	payloads := [][]byte{
		[]byte(""),
		[]byte("NO_CHANGE"),
		make([]byte, 1<<20),
		[]byte("SET_VAR{\"variable\":\"fps\",\"value\":30}"),
	}

	for i := range payloads[2] {
		payloads[2][i] = byte(i)
	}

	for _, p := range payloads {
		if err := tx.Send(p); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	for i, want := range payloads {
		select {
		case got := <-rx.Recv():
			if len(got) != len(want) {
				t.Fatalf("payload %d: length mismatch: got %d want %d", i, len(got), len(want))
			}
			for j := range got {
				if got[j] != want[j] {
					t.Fatalf("payload %d: byte %d mismatch", i, j)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("payload %d: timed out waiting for recv", i)
		}
	}
}

func TestStopUnblocksRecv(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	rx := New(server)

	done := make(chan struct{})
	go func() {
		for range rx.Recv() {
		}
		close(done)
	}()

	rx.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recv channel did not close after Stop")
	}
}

func TestFrameTooLarge(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	rx := New(server)
	defer rx.Stop()

	go func() {
		header := make([]byte, headerSize)
		for i := range header {
			header[i] = 0xFF
		}
		client.Write(header)
	}()

	select {
	case _, ok := <-rx.Recv():
		if ok {
			t.Fatal("expected recv channel to close on framing error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for framing error")
	}

	if rx.Err() != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", rx.Err())
	}
}
