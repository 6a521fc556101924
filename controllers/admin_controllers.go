package controllers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

type AdminController struct {
	Client *services.SyncClient
	Now    func() time.Time
}

func NewAdminController(client *services.SyncClient) *AdminController {
	return &AdminController{Client: client, Now: time.Now}
}

// GetDashboardStats -> GET /admin/stats
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats := services.ComputeSalesStats(ac.Client.Orders(), ac.Now())
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetRevenueChart -> GET /admin/stats/chart.png
func (ac *AdminController) GetRevenueChart(c *gin.Context) {
	stats := services.ComputeSalesStats(ac.Client.Orders(), ac.Now())

	var buf bytes.Buffer
	if err := services.RenderRevenueChart(&buf, stats.LastSevenDay); err != nil {
		utils.ErrorLogger.WithError(err).Error("Render revenue chart")
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
