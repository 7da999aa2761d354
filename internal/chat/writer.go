package chat

import "github.com/wavyrn1/shroudserver/internal/transport"

func StartOutboundWriter(conn transport.Conn, out <-chan string) {
	go func() {
		for line := range out {
			// Best-effort. If the connection breaks, close it so the reader
			// side unblocks too.
			if err := conn.WriteLine(line); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
}
