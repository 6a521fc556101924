package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/fantasteak-pos/controllers"
	"github.com/yeremiapane/fantasteak-pos/database"
	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/printer"
	"github.com/yeremiapane/fantasteak-pos/receipt"
	"github.com/yeremiapane/fantasteak-pos/router"
	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
	"gorm.io/gorm"
)

type testConsole struct {
	handler http.Handler
	client  *services.SyncClient
	token   string
}

// startConsole runs one console process against the shared store, the way
// main wires it.
func startConsole(t *testing.T, db *gorm.DB, role services.Role, passcode string, transport printer.Transport) *testConsole {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := database.NewOrderStore(db)
	monitor := services.NewChangeMonitor(db)
	monitor.Interval = 20 * time.Millisecond
	require.NoError(t, monitor.Start(ctx))
	t.Cleanup(monitor.Stop)

	hub := kds.NewHub()
	client := services.NewSyncClient(store, monitor)
	client.OnRefresh(hub.BroadcastOrdersChanged)
	client.Start(ctx)
	t.Cleanup(client.Close)

	r, err := router.SetupRouter(router.Deps{
		Client:   client,
		Orphans:  store,
		Printer:  printer.NewGuard(transport),
		Hub:      hub,
		Business: receipt.DefaultBusiness(),
		Session: controllers.SessionConfig{
			CashierPasscode: "kasirqu",
			AdminPasscode:   "adminqu",
			Secret:          []byte("integration-" + string(role)),
			TTL:             time.Hour,
			AppRole:         role,
		},
	})
	require.NoError(t, err)

	c := &testConsole{handler: r, client: client}
	code, resp := c.do(t, http.MethodPost, "/session", map[string]string{"view": string(role), "passcode": passcode})
	require.Equal(t, http.StatusOK, code, resp.Message)
	c.token = resp.Data.(map[string]interface{})["token"].(string)
	return c
}

func (c *testConsole) do(t *testing.T, method, path string, body interface{}) (int, utils.JSONResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var resp utils.JSONResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func (c *testConsole) statusOf(id string) models.OrderStatus {
	o, ok := c.client.Order(id)
	if !ok {
		return ""
	}
	return o.Status
}

// tcpPrinter accepts one connection and hands back everything written to it.
func tcpPrinter(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		out <- data
	}()
	return ln.Addr().String(), out
}

// TestEndToEndIntegration runs the main flow across two consoles:
// 1. Customer checks out
// 2. Cashier console sees the order through the change feed
// 3. Cashier confirms, then settles
// 4. Customer console converges on PAID
// 5. Cashier prints the receipt to a network printer
func TestEndToEndIntegration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	addr, printed := tcpPrinter(t)
	customer := startConsole(t, db, services.RoleCustomer, "", printer.Disabled{})
	cashier := startConsole(t, db, services.RoleCashier, "kasirqu", printer.NewNetwork(addr, time.Second))

	// 1
	code, resp := customer.do(t, http.MethodPost, "/orders", map[string]interface{}{
		"customer_name":  "Budi",
		"order_type":     "DINE_IN",
		"payment_method": "CASH",
		"table_number":   "4",
		"items": []models.OrderLine{
			{MenuID: "m1", Name: "Wagyu Ribeye MB9+", Price: 450000, Quantity: 2, Notes: "less salt"},
			{MenuID: "m2", Name: "Iced Lychee Tea", Price: 35000, Quantity: 1},
		},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	id := resp.Data.(map[string]interface{})["order_id"].(string)

	// 2
	require.Eventually(t, func() bool { return cashier.statusOf(id) == models.StatusPending }, 2*time.Second, 10*time.Millisecond)
	o, _ := cashier.client.Order(id)
	assert.EqualValues(t, 935000, o.Total)
	assert.Len(t, o.Items, 2)

	// 3
	code, resp = cashier.do(t, http.MethodPatch, "/orders/"+id+"/status", map[string]string{"status": "PAID"})
	assert.Equal(t, http.StatusConflict, code, "PENDING cannot skip to PAID")
	code, resp = cashier.do(t, http.MethodPatch, "/orders/"+id+"/status", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	code, resp = cashier.do(t, http.MethodPatch, "/orders/"+id+"/status", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, models.StatusPaid, cashier.statusOf(id), "read after write on the acting console")

	// 4
	require.Eventually(t, func() bool { return customer.statusOf(id) == models.StatusPaid }, 2*time.Second, 10*time.Millisecond)

	// The customer console is pinned; it cannot unlock the cashier screen.
	code, _ = customer.do(t, http.MethodPost, "/session", map[string]string{"view": "cashier", "passcode": "kasirqu"})
	assert.Equal(t, http.StatusForbidden, code)

	// 5
	code, resp = cashier.do(t, http.MethodPost, "/orders/"+id+"/print", nil)
	require.Equal(t, http.StatusOK, code, resp.Message)

	o, _ = cashier.client.Order(id)
	want := receipt.Encode(receipt.Build(o, receipt.DefaultBusiness()))
	select {
	case got := <-printed:
		assert.Equal(t, want, got)
		assert.Contains(t, string(got), "GRAND TOTAL: Rp 935.000")
	case <-time.After(2 * time.Second):
		t.Fatal("printer received nothing")
	}
}
