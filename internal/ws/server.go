package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server upgrades HTTP requests to websocket connections and keeps them
// registered with the hub until they drop.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewServer(hub *Hub, log *logrus.Logger) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleWS is the GET /ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("ws: upgrade failed")
		return
	}

	c := s.hub.AddClient(conn)

	// Drain the read side so close frames are processed; the hub only
	// ever writes.
	go func() {
		defer s.hub.RemoveClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
