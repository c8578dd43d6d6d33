package realtime

import (
	"net/http"

	"NeighborGuard/pkg/util/myjwt"
	"NeighborGuard/pkg/ws"
	"NeighborGuard/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WsHandler struct {
	hub *ws.Hub
}

func NewWsHandler(hub *ws.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect GET /wss?token=
// 浏览器原生 WebSocket 不能带 Authorization 头，令牌放在查询参数里，在这里自行校验
func (h *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := myjwt.ParseToken(token)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn("ws upgrade failed", zap.Int64("user_id", claims.UserId), zap.Error(err))
		return
	}

	client := ws.NewClient(claims.UserId, conn)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
	h.hub.Unregister(client)
}
