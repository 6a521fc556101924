package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/middlewares"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // consoles are served from localhost
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// Connect -> GET /ws. Screens only listen; anything they send is discarded.
func (kc *KDSController) Connect(c *gin.Context) {
	role, ok := middlewares.RoleFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	kc.Hub.RegisterClient(ws, string(role))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	kc.Hub.UnregisterClient(ws)
	utils.InfoLogger.WithFields(logrus.Fields{
		"role":    role,
		"screens": kc.Hub.ClientCount(),
	}).Info("Screen disconnected")
}
