package websocket

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/diffbot/pkg/l1/comm"
)

func TestReadWriterEcho(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		rw := New(conn)
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return
			}
			if err := rw.WritePacket(append([]byte("echo "), pkt...)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	rw, err := Dial(url, srv.URL)
	require.NoError(t, err)
	defer rw.Close()

	lines := comm.NewLines(rw)
	_, err = lines.Write([]byte("$PCSTT,*\r\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := io.ReadAtLeast(lines, buf, len("echo $PCSTT,*\r\n"))
	require.NoError(t, err)
	require.Equal(t, "echo $PCSTT,*\r\n", string(buf[:n]))
}

func TestDialError(t *testing.T) {
	_, err := Dial("ws://127.0.0.1:1/none", "http://127.0.0.1/")
	require.Error(t, err)
}
