package server

import (
	"battler-server/internal/domain"
	"battler-server/internal/engine"
	"battler-server/pkg/api"
	"battler-server/pkg/logger"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gorilla/websocket"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService
type Client struct {
	Game    *engine.GameService
	Conn    *websocket.Conn
	Send    chan api.ServerResponse
	Session *engine.Session

	// Done закрывается при выходе writePump и отпускает пересыльщика,
	// застрявшего на заполненном Send.
	Done chan struct{}
}

func NewClient(game *engine.GameService, conn *websocket.Conn) *Client {
	return &Client{
		Game: game,
		Conn: conn,
		Send: make(chan api.ServerResponse, 256),
		Done: make(chan struct{}),
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		if c.Session != nil {
			c.Game.Hub.Unregister(c.Session.ID)
			c.Game.EndSession(c.Session.ID)
			logger.Log.WithField("session", c.Session.ID).Info("Client disconnected")
		}
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. HANDSHAKE: первой командой клиент обязан прислать START
	var startCmd api.ClientCommand
	if err := c.Conn.ReadJSON(&startCmd); err != nil {
		logger.Log.Warn("Handshake failed")
		return
	}
	if startCmd.Action != "START" {
		c.sendError("first command must be START")
		return
	}

	var start api.StartPayload
	if err := decodePayload(startCmd.Payload, &start); err != nil {
		c.sendError(err.Error())
		return
	}

	session, err := c.Game.StartSession(domain.GameMode(start.Mode))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to start session")
		c.sendError("failed to start session")
		return
	}
	c.Session = session

	logger.Log.WithFields(logrus.Fields{
		"session": session.ID,
		"mode":    start.Mode,
	}).Info("Client started run")

	// 2. ПОДПИСКА НА ОБНОВЛЕНИЯ
	gameUpdates := c.Game.Hub.Register(session.ID)

	// Пересылка обновлений из Hub в writePump
	go c.forwardUpdates(gameUpdates)

	// 3. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		err := c.Conn.ReadJSON(&cmd)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Errorf("WS Error: %v", err)
			}
			break
		}
		c.handleCommand(cmd)
	}
}

// forwardUpdates гонит обновления из Hub в writePump до закрытия
// источника или ухода писателя.
func (c *Client) forwardUpdates(updates <-chan api.ServerResponse) {
	for msg := range updates {
		select {
		case c.Send <- msg:
		case <-c.Done:
			// Писатель ушел, Send больше никто не читает. Канал не
			// закрываем: readPump еще может слать ошибки в него.
			return
		}
	}
	close(c.Send)
}

// handleCommand разбирает команду и передает её сессии.
// Ошибки валидации отправляются клиенту, соединение не рвут.
func (c *Client) handleCommand(cmd api.ClientCommand) {
	switch cmd.Action {
	case "INPUT":
		var payload api.InputPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			c.sendError(err.Error())
			return
		}
		c.Session.QueueInput(toGameInput(payload))

	case "RETRY":
		c.Session.Retry()

	case "CONTINUE":
		c.Session.Continue()

	case "PAUSE":
		c.Session.TogglePause()

	case "SCOREBOARD":
		var payload api.ScoreboardPayload
		if err := decodePayload(cmd.Payload, &payload); err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendScoreboard(payload.Limit)

	default:
		c.sendError("unknown action: " + cmd.Action)
	}
}

func (c *Client) sendScoreboard(limit int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := c.Game.Scoreboard(ctx, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Scoreboard request failed")
		c.sendError("scoreboard unavailable")
		return
	}

	select {
	case c.Send <- api.ServerResponse{Type: "SCOREBOARD", Scoreboard: entries}:
	default:
	}
}

func (c *Client) sendError(msg string) {
	select {
	case c.Send <- api.ServerResponse{Type: "ERROR", Error: msg}:
	default:
	}
}

// decodePayload разбирает и валидирует payload команды.
func decodePayload(raw json.RawMessage, v api.Validator) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, v); err != nil {
			return err
		}
	}
	return v.Validate()
}

// toGameInput переводит DTO ввода в доменный ввод тика.
func toGameInput(p api.InputPayload) domain.GameInput {
	in := domain.GameInput{
		Block:   p.Block,
		Dodge:   domain.DodgeDirection(p.Dodge),
		Special: p.Special,
	}
	if p.Attack != "" {
		kind := domain.AttackKind(p.Attack)
		in.Attack = &kind
	}
	return in
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.Done)
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
