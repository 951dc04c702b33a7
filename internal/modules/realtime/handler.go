package realtime

import (
	"net/http"

	"therapyspace/internal/domain"
	"therapyspace/internal/pkg/jwt"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type Handler struct {
	hub         *Hub
	tokens      TokenValidator
	allowGlobal bool
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

// NewHandler builds the websocket endpoint. checkOrigin may be nil to accept
// any origin.
func NewHandler(hub *Hub, tokens TokenValidator, allowGlobal bool, checkOrigin func(*http.Request) bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:         hub,
		tokens:      tokens,
		allowGlobal: allowGlobal,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/bookings", h.HandleWebSocket)
}

// HandleWebSocket godoc
// @Summary Subscribe to booking changes
// @Description Upgrades to a websocket that receives an event for every change to a booking the pass covers.
// @Tags Realtime
// @Param token query string false "Client pass"
// @Success 101
// @Failure 401 {object} response.Response
// @Router /ws/bookings [get]
//
// Browsers cannot set headers on websocket requests, so the client pass
// travels in the query string.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	var viewer domain.Viewer
	if token := c.Query("token"); token != "" {
		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		viewer = claims.Viewer()
	} else if !h.allowGlobal {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.log.Debug("websocket subscriber connected", zap.String("viewer", viewer.Key()))
	h.hub.Serve(conn, viewer)
}
