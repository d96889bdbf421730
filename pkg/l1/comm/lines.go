package comm

import (
	"bytes"
	"io"
	"sync"
)

// MaxPendingLine bounds the bytes written without a line terminator.
// Longer runs are sent as a packet of their own.
const MaxPendingLine = 256

// Lines adapts a PacketReadWriter carrying one line per packet into
// the CRLF terminated byte stream of a serial link.
type Lines struct {
	Packets PacketReadWriter

	rbuf []byte

	wlock sync.Mutex
	wbuf  []byte
}

// NewLines creates Lines over packets.
func NewLines(packets PacketReadWriter) *Lines {
	return &Lines{Packets: packets}
}

// Read implements io.Reader. Each packet is delivered as one line.
func (l *Lines) Read(p []byte) (int, error) {
	for len(l.rbuf) == 0 {
		pkt, err := l.Packets.ReadPacket()
		if err != nil {
			return 0, err
		}
		l.rbuf = append(bytes.TrimRight(pkt, "\r\n"), '\r', '\n')
	}
	n := copy(p, l.rbuf)
	l.rbuf = l.rbuf[n:]
	return n, nil
}

// Write implements io.Writer. Every complete line becomes a packet
// without its terminator; empty lines are skipped.
func (l *Lines) Write(p []byte) (int, error) {
	l.wlock.Lock()
	defer l.wlock.Unlock()
	l.wbuf = append(l.wbuf, p...)
	for {
		i := bytes.IndexByte(l.wbuf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(l.wbuf[:i], "\r")
		l.wbuf = l.wbuf[i+1:]
		if err := l.send(line); err != nil {
			return len(p), err
		}
	}
	if len(l.wbuf) > MaxPendingLine {
		line := l.wbuf
		l.wbuf = nil
		return len(p), l.send(line)
	}
	return len(p), nil
}

func (l *Lines) send(line []byte) error {
	if len(line) == 0 {
		return nil
	}
	return l.Packets.WritePacket(append([]byte(nil), line...))
}

// Close closes the packet transport if it supports closing.
func (l *Lines) Close() error {
	if closer, ok := l.Packets.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
