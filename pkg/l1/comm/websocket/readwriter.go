// Package websocket carries one line per websocket text frame.
package websocket

import (
	"github.com/pkg/errors"
	"golang.org/x/net/websocket"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Conn *websocket.Conn
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return &ReadWriter{Conn: conn}
}

// Dial connects to a websocket server.
func Dial(url, origin string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader. Text and binary frames are both
// accepted.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter. Lines are sent as text frames.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, string(pkt))
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Conn.Close()
}
