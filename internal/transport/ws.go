package transport

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// WSConn adapts a websocket connection to the line protocol: one text frame
// per line.
type WSConn struct {
	conn *websocket.Conn
}

func NewWS(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

func (c *WSConn) ReadLine() (string, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if mt != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *WSConn) WriteLine(line string) error {
	line = strings.ReplaceAll(line, "\n", "")
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}

func (c *WSConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WSHandler upgrades incoming requests and hands each resulting connection
// to handle on its own goroutine.
func WSHandler(handle func(Conn)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go handle(NewWS(ws))
	})
}
