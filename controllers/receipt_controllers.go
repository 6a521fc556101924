package controllers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/printer"
	"github.com/yeremiapane/fantasteak-pos/receipt"
	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

const printTimeout = 30 * time.Second

type ReceiptController struct {
	Client   *services.SyncClient
	Business receipt.Business
	Printer  printer.Transport
	Hub      *kds.Hub
}

func NewReceiptController(client *services.SyncClient, business receipt.Business, p printer.Transport, hub *kds.Hub) *ReceiptController {
	return &ReceiptController{Client: client, Business: business, Printer: p, Hub: hub}
}

// PrintResult is pushed to cashier screens after every print attempt.
type PrintResult struct {
	OrderID string `json:"order_id"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (rc *ReceiptController) build(c *gin.Context) (receipt.Receipt, bool) {
	o, ok := rc.Client.Order(c.Param("order_id"))
	if !ok {
		utils.RespondMessage(c, http.StatusNotFound, "Pesanan tidak ditemukan")
		return receipt.Receipt{}, false
	}
	return receipt.Build(o, rc.Business), true
}

// GetReceipt -> GET /orders/:order_id/receipt
func (rc *ReceiptController) GetReceipt(c *gin.Context) {
	r, ok := rc.build(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Receipt", gin.H{
		"receipt":    r,
		"ordered_at": r.OrderedAtText(),
		"event_date": r.EventDateText(),
		"total_text": r.TotalText(),
	})
}

// DownloadPDF -> GET /orders/:order_id/receipt.pdf
func (rc *ReceiptController) DownloadPDF(c *gin.Context) {
	r, ok := rc.build(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := receipt.RenderPDF(&buf, r); err != nil {
		utils.ErrorLogger.WithField("order_id", r.OrderID).WithError(err).Error("Render receipt PDF")
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="struk-`+r.OrderID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Print -> POST /orders/:order_id/print. One attempt, no retry; the cashier
// presses print again after a failure.
func (rc *ReceiptController) Print(c *gin.Context) {
	r, ok := rc.build(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), printTimeout)
	defer cancel()

	err := rc.Printer.Print(ctx, receipt.Encode(r))
	result := PrintResult{OrderID: r.OrderID, OK: err == nil, Message: printer.UserMessage(err)}
	if rc.Hub != nil {
		rc.Hub.BroadcastToRole(string(services.RoleCashier), kds.Message{Event: kds.EventPrintResult, Data: result})
	}

	switch {
	case err == nil:
		utils.RespondJSON(c, http.StatusOK, result.Message, result)
	case errors.Is(err, printer.ErrBusy):
		utils.RespondJSON(c, http.StatusConflict, result.Message, result)
	default:
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": r.OrderID,
			"error":    err,
		}).Warn("Print failed")
		utils.RespondJSON(c, http.StatusBadGateway, result.Message, result)
	}
}
