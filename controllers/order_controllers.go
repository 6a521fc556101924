package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/middlewares"
	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// OrphanStore finds and removes orders left without lines by a failed
// checkout.
type OrphanStore interface {
	OrphanOrders(ctx context.Context) ([]models.OrderRow, error)
	DeleteOrder(ctx context.Context, id string) error
}

type OrderController struct {
	Client   *services.SyncClient
	Workflow *services.OrderWorkflow
	Orphans  OrphanStore
	Hub      *kds.Hub
	// WhatsApp is the number QRIS customers send payment proof to.
	WhatsApp string
}

func NewOrderController(client *services.SyncClient, orphans OrphanStore, hub *kds.Hub, whatsapp string) *OrderController {
	return &OrderController{
		Client:   client,
		Workflow: services.NewOrderWorkflow(client),
		Orphans:  orphans,
		Hub:      hub,
		WhatsApp: whatsapp,
	}
}

// GetAllOrders -> GET /orders, ?active=true for the cashier queue
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	if c.Query("active") == "true" {
		utils.RespondJSON(c, http.StatusOK, "Active orders", oc.Client.ActiveOrders())
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", oc.Client.Orders())
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	o, ok := oc.Client.Order(c.Param("order_id"))
	if !ok {
		utils.RespondMessage(c, http.StatusNotFound, "Pesanan tidak ditemukan")
		return
	}

	data := gin.H{"order": o, "terminal": services.IsTerminal(o.Status)}
	if role, ok := middlewares.RoleFrom(c); ok {
		data["next_statuses"] = services.NextStatuses(o.Status, role)
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", data)
}

// CreateOrder -> POST /orders (customer checkout)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.NewOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	id, err := oc.Client.CreateOrder(c.Request.Context(), req)
	if err != nil {
		var verr *services.ValidationError
		var partial *services.PartialWriteError
		switch {
		case errors.As(err, &verr):
			utils.RespondJSON(c, http.StatusBadRequest, verr.Message, gin.H{"field": verr.Field})
		case errors.As(err, &partial):
			utils.RespondJSON(c, http.StatusInternalServerError,
				"Pesanan gagal disimpan lengkap. Hubungi kasir dengan nomor "+partial.OrderID,
				gin.H{"order_id": partial.OrderID})
		default:
			utils.RespondMessage(c, http.StatusInternalServerError, "Gagal membuat pesanan, silakan coba lagi")
		}
		return
	}

	data := gin.H{"order_id": id}
	o, ok := oc.Client.Order(id)
	if ok {
		data["order"] = o
	} else {
		// The post-create refresh failed; answer from the request.
		total, _ := models.ComputeTotal(req.Items)
		o = models.Order{
			ID:            id,
			CustomerName:  req.CustomerName,
			OrderType:     req.OrderType,
			TableNumber:   req.TableNumber,
			EventDate:     req.EventDate,
			Status:        models.StatusPending,
			PaymentMethod: req.PaymentMethod,
			Total:         total,
		}
	}
	if req.PaymentMethod == models.PaymentQRIS && oc.WhatsApp != "" {
		data["confirmation_link"] = services.QRISConfirmationLink(oc.WhatsApp, o)
	}
	utils.RespondJSON(c, http.StatusCreated, "Pesanan diterima", data)
}

// UpdateStatus -> PATCH /orders/:order_id/status {status}
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var input struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	role, ok := middlewares.RoleFrom(c)
	if !ok {
		utils.RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	o, err := oc.Workflow.Transition(c.Request.Context(), role, c.Param("order_id"), input.Status)
	switch {
	case err == nil:
		if oc.Hub != nil {
			oc.Hub.BroadcastOrderStatus(o)
		}
		utils.RespondJSON(c, http.StatusOK, "Status pesanan diperbarui", o)
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondMessage(c, http.StatusNotFound, "Pesanan tidak ditemukan")
	case errors.Is(err, services.ErrForbiddenRole):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, services.ErrIllegalTransition):
		utils.RespondJSON(c, http.StatusConflict, err.Error(), o)
	default:
		utils.RespondMessage(c, http.StatusInternalServerError, "Gagal memperbarui status, silakan coba lagi")
	}
}

// Refresh -> POST /orders/refresh
func (oc *OrderController) Refresh(c *gin.Context) {
	orders, err := oc.Client.FetchAll(c.Request.Context())
	if err != nil {
		utils.RespondMessage(c, http.StatusServiceUnavailable, "Gagal memuat pesanan, data yang tampil mungkin belum terbaru")
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders refreshed", orders)
}

// GetOrphans -> GET /admin/orphans
func (oc *OrderController) GetOrphans(c *gin.Context) {
	rows, err := oc.Orphans.OrphanOrders(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, models.RowToOrder(row))
	}
	utils.RespondJSON(c, http.StatusOK, "Orders without items", orders)
}

// DeleteOrphan -> DELETE /admin/orphans/:order_id. Orders that have lines
// are never deleted.
func (oc *OrderController) DeleteOrphan(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("order_id")

	rows, err := oc.Orphans.OrphanOrders(ctx)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	orphan := false
	for _, row := range rows {
		if row.ID == id {
			orphan = true
			break
		}
	}
	if !orphan {
		utils.RespondMessage(c, http.StatusConflict, "Pesanan ini memiliki item dan tidak dapat dihapus")
		return
	}

	if err := oc.Orphans.DeleteOrder(ctx, id); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.WithField("order_id", id).Info("Orphan order removed")
	if _, err := oc.Client.FetchAll(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("Refresh after orphan delete failed")
	}
	utils.RespondMessage(c, http.StatusOK, "Pesanan dihapus")
}
