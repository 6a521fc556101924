package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/utils"
)

func PrintLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		utils.InfoLogger.Printf("Printing receipt for order %s", orderID)

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			utils.InfoLogger.Printf("Receipt printed for order %s", orderID)
		} else {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id": orderID,
				"status":   c.Writer.Status(),
			}).Error("Printing receipt failed")
		}
	}
}
