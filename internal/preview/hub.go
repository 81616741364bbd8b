/*
Package preview — real-time канал для декоративного 3D-превью.

Hub держит реестр websocket-клиентов, привязанных к сессиям конфигуратора,
и рассылает им события "color_changed" / "wheels_changed". На цену превью
не влияет: это только слушатель изменений.

  - Hub: единый менеджер, крутится в своей горутине (Run).
  - Client: одно подключение браузера.
  - ServeWs: апгрейд HTTP-запроса до websocket.
*/
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ev-configurator-backend/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Message — конверт всех сообщений превью
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
}

type envelope struct {
	session string
	data    []byte
}

// Client — одно подключение превью
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session string
	send    chan []byte
}

// Hub рассылает сообщения клиентам нужной сессии
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	closing    chan string // сессия, чьих клиентов надо отключить
	done       chan struct{}
	logger     zerolog.Logger
}

// NewHub создаёт хаб; запускать через Run в отдельной горутине.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		closing:    make(chan string),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run — цикл хаба. Блокируется до отмены ctx, затем закрывает всех клиентов.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			h.logger.Debug().Msg("preview hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = true
			metrics.PreviewClientConnected()
			h.logger.Debug().Str("session", c.session).Msg("preview client connected")

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}

		case session := <-h.closing:
			n := 0
			for c := range h.clients {
				if c.session == session {
					h.drop(c)
					n++
				}
			}
			if n > 0 {
				h.logger.Debug().Str("session", session).Int("clients", n).Msg("preview session closed")
			}

		case env := <-h.broadcast:
			for c := range h.clients {
				if c.session != env.session {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					// буфер забит — клиент завис
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	metrics.PreviewClientDisconnected()
}

// Publish отправляет сообщение всем клиентам сессии.
// После остановки хаба сообщения отбрасываются.
func (h *Hub) Publish(session string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("preview message marshal failed")
		return
	}

	select {
	case h.broadcast <- envelope{session: session, data: data}:
	case <-h.done:
	}
}

// CloseSession отключает всех клиентов сессии.
// После остановки хаба ничего не делает.
func (h *Hub) CloseSession(session string) {
	select {
	case h.closing <- session:
	case <-h.done:
	}
}

// Done закрывается, когда Run завершился
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs апгрейдит запрос и подписывает клиента на сессию.
// hello отправляются клиенту сразу после подключения.
func ServeWs(hub *Hub, session string, w http.ResponseWriter, r *http.Request, hello ...Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn().Err(err).Msg("preview websocket upgrade failed")
		return
	}

	c := &Client{hub: hub, conn: conn, session: session, send: make(chan []byte, sendBuffer)}
	for _, m := range hello {
		if data, err := json.Marshal(m); err == nil {
			c.send <- data
		}
	}

	select {
	case hub.register <- c:
	case <-hub.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump только держит соединение: входящие сообщения превью игнорируются.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("session", c.session).Msg("preview client read error")
			}
			return
		}
	}
}

// writePump пишет сообщения хаба в сокет; выходит, когда send закрыт.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
