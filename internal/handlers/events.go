package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/addisrender/backend/internal/middleware"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/internal/session"
	"github.com/addisrender/backend/internal/utils"
	"github.com/addisrender/backend/pkg/logger"
	"github.com/addisrender/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventsHandler streams real-time updates over Server-Sent Events.
type EventsHandler struct {
	hub         *services.EventHub
	authService *services.AuthService
}

func NewEventsHandler(authService *services.AuthService) *EventsHandler {
	return &EventsHandler{
		hub:         services.GetEventHub(),
		authService: authService,
	}
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// StreamServiceEvents pushes service catalog changes to any visitor
// GET /api/events/services
func (h *EventsHandler) StreamServiceEvents(c *gin.Context) {
	setSSEHeaders(c)

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID, 0, services.EventServices)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Int("total", h.hub.ClientCount()).Msg("service events client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			writeSSE(c, w, event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// StreamEvents pushes session and upload-progress updates for the
// authenticated user. The session stream goes through a per-connection
// store so the client always sees a coherent, ordered view.
// GET /api/events?token=...
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	token := streamToken(c)
	if token == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	setSSEHeaders(c)

	// Per-connection session store: resolves the current session, then
	// follows change events, dropping stale ones.
	store, err := session.NewStore(c.Request.Context(), h.authService.GatewayFor(token))
	if err != nil {
		logger.Warnf("session resolution failed for event stream: %v", err)
	}
	defer store.Close()
	states, cancel := store.Subscribe()
	defer cancel()

	clientID := uuid.New().String()
	progress := h.hub.Subscribe(clientID, claims.UserID, services.EventQuoteProgress)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Uint("user_id", claims.UserID).Msg("event stream connected")

	// Send the resolved state up front so clients never render from the
	// loading gap.
	writeSSE(c, c.Writer, sessionEvent(store.Snapshot()))

	c.Stream(func(w io.Writer) bool {
		select {
		case state, ok := <-states:
			if !ok {
				return false
			}
			writeSSE(c, w, sessionEvent(state))
			return true
		case event, ok := <-progress:
			if !ok {
				return false
			}
			writeSSE(c, w, event)
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("event stream disconnected")
			return false
		}
	})
}

func sessionEvent(state session.State) services.Event {
	payload := gin.H{
		"loading":   state.Loading,
		"signed_in": state.Session != nil,
		"admin":     state.Admin,
	}
	if state.Session != nil {
		payload["email"] = state.Session.Email
	}
	return services.Event{Type: services.EventSession, Payload: payload}
}

func writeSSE(c *gin.Context, w io.Writer, event services.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("sse marshal error")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	c.Writer.Flush()
}

// streamToken pulls the access token from the query string, the
// Authorization header, or the session cookie. EventSource cannot set
// headers, so the query form comes first.
func streamToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(middleware.AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}
