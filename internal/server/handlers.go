// Package server exposes HTTP handlers: WebSocket upgrades, the health
// check, and the read-only REST views of chat state.
package server

import (
	"log/slog"
	"net/http"

	"github.com/Tyrowin/roomchat/internal/activity"
	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// messagesRequest is the DTO for GET /api/messages/:room.
type messagesRequest struct {
	Room     string `param:"room" validate:"required"`
	Page     int    `query:"page" validate:"min=0,max=1000000"`
	PageSize int    `query:"pageSize" validate:"min=0,max=500"`
}

// statsResponse is the body of GET /api/stats.
type statsResponse struct {
	chat.Stats
	Clients  int               `json:"clients"`
	Activity activity.Snapshot `json:"activity"`
}

// Handler serves the HTTP surface of the chat service.
type Handler struct {
	engine   *chat.Engine
	hub      *Hub
	tracker  *activity.Tracker
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler set. Upgrades are checked against
// origins.
func NewHandler(engine *chat.Engine, hub *Hub, tracker *activity.Tracker, cfg Config, origins *originPolicy) *Handler {
	return &Handler{
		engine:  engine,
		hub:     hub,
		tracker: tracker,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		logger: slog.Default().With("component", "http"),
	}
}

// WebSocket upgrades the request and hands the new client to the hub, which
// launches its pumps.
func (h *Handler) WebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.logger.Warn("WebSocket upgrade failed", "remote_addr", c.RealIP(), "error", err)
		return nil
	}

	client := NewClient(conn, h.hub, c.RealIP(), h.cfg)
	h.hub.Register(client)
	return nil
}

// Health provides a simple health check endpoint that returns server status.
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "roomchat server is running!")
}

// Messages returns one page of a room's history as a JSON array, oldest
// first.
func (h *Handler) Messages(c echo.Context) error {
	var req messagesRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page := h.engine.FetchMessages(req.Room, req.Page, req.PageSize)
	return c.JSON(http.StatusOK, page.Messages)
}

// Users returns every registered profile.
func (h *Handler) Users(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Users())
}

// Stats reports live engine counts, transport clients and bus activity.
func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{
		Stats:    h.engine.Stats(),
		Clients:  h.hub.ClientCount(),
		Activity: h.tracker.Snapshot(),
	})
}
