// internal/handlers/websocket/ws_handler.go
package websocket

import (
	"net/http"

	"invitera-service/internal/middleware"
	ws "invitera-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer; the socket carries no
		// inbound commands.
		return true
	},
}

type WSHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWSHandler(hub *ws.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
	}
}

// Subscribe upgrades the connection and streams session events to the
// tab until the socket closes. MUST be used after RequireAuth.
func (h *WSHandler) Subscribe(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)
	jti := middleware.MustGetJTI(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.Int64("identity_id", identityID), zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, identityID, jti)
	client.Start()
}
