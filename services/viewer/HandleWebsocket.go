package viewer

import (
	"context"
	"net/http"
	"time"

	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

const clientBuffer = 8

type wsMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Graph     *graphResponse `json:"graph,omitempty"`
}

type wsClient struct {
	id string
	ch chan []byte
}

// hub pushes every newly published view, and a periodic ping, to the connected clients.
// A client that falls behind misses views rather than stalling the others.
type hub struct {
	logger    ulogger.Logger
	session   *simulation.Session
	interval  time.Duration
	ping      time.Duration
	newClient chan *wsClient
	dead      chan *wsClient
	stopped   chan struct{}
}

func newHub(logger ulogger.Logger, session *simulation.Session, interval, ping time.Duration) *hub {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	if ping <= 0 {
		ping = 20 * time.Second
	}

	return &hub{
		logger:    logger,
		session:   session,
		interval:  interval,
		ping:      ping,
		newClient: make(chan *wsClient, 10),
		dead:      make(chan *wsClient, 10),
		stopped:   make(chan struct{}),
	}
}

func (h *hub) viewMessage(v *simulation.View) []byte {
	g := newGraphResponse(v)

	data, err := jsoniter.Marshal(&wsMessage{Type: "VIEW", Timestamp: time.Now().UnixMilli(), Graph: &g})
	if err != nil {
		h.logger.Errorf("[Viewer] error marshaling view: %v", err)
		return nil
	}

	return data
}

func (h *hub) run(ctx context.Context) {
	defer close(h.stopped)

	clients := make(map[*wsClient]struct{})

	viewTicker := time.NewTicker(h.interval)
	defer viewTicker.Stop()

	pingTicker := time.NewTicker(h.ping)
	defer pingTicker.Stop()

	var last *simulation.View

	send := func(c *wsClient, data []byte) {
		select {
		case c.ch <- data:
		default:
			h.logger.Debugf("[Viewer] client %s is behind, dropping message", c.id)
		}
	}

	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				close(c.ch)
			}

			prometheusViewerClients.Set(0)

			return

		case c := <-h.newClient:
			clients[c] = struct{}{}
			prometheusViewerClients.Set(float64(len(clients)))

			if data := h.viewMessage(h.session.Latest()); data != nil {
				send(c, data)
			}

		case c := <-h.dead:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.ch)
				prometheusViewerClients.Set(float64(len(clients)))
			}

		case <-pingTicker.C:
			if len(clients) == 0 {
				continue
			}

			data, err := jsoniter.Marshal(&wsMessage{Type: "PING", Timestamp: time.Now().UnixMilli()})
			if err != nil {
				h.logger.Errorf("[Viewer] error marshaling ping: %v", err)
				continue
			}

			for c := range clients {
				send(c, data)
			}

		case <-viewTicker.C:
			v := h.session.Latest()
			if v == last || len(clients) == 0 {
				continue
			}

			last = v

			data := h.viewMessage(v)
			if data == nil {
				continue
			}

			prometheusViewerBroadcasts.Inc()

			for c := range clients {
				send(c, data)
			}
		}
	}
}

// HandleWebSocket upgrades the connection and streams views until the client goes away.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	client := &wsClient{id: random.String(8, random.Alphanumeric), ch: make(chan []byte, clientBuffer)}

	s.logger.Debugf("[Viewer] websocket client %s connected from %s", client.id, c.RealIP())

	select {
	case s.hub.newClient <- client:
	case <-s.hub.stopped:
		return nil
	case <-c.Request().Context().Done():
		return nil
	}

	// reads only to notice the client closing
	gone := make(chan struct{})

	go func() {
		defer close(gone)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-client.ch:
			if !ok {
				return nil
			}

			if err = ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warnf("[Viewer] failed to send to websocket client %s: %v", client.id, err)
				s.hub.leave(client)

				return nil
			}
		case <-gone:
			s.logger.Debugf("[Viewer] websocket client %s disconnected", client.id)
			s.hub.leave(client)

			return nil
		}
	}
}

func (h *hub) leave(c *wsClient) {
	select {
	case h.dead <- c:
	case <-h.stopped:
	}
}
