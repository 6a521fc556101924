package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/fantasteak-pos/controllers"
	"github.com/yeremiapane/fantasteak-pos/database"
	"github.com/yeremiapane/fantasteak-pos/kds"
	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/printer"
	"github.com/yeremiapane/fantasteak-pos/receipt"
	"github.com/yeremiapane/fantasteak-pos/services"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *services.SyncClient, *kds.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	store := database.NewOrderStore(db)

	hub := kds.NewHub()
	client := services.NewSyncClient(store, services.NewChangeMonitor(db))
	client.OnRefresh(hub.BroadcastOrdersChanged)

	r, err := SetupRouter(Deps{
		Client:   client,
		Orphans:  store,
		Printer:  printer.NewGuard(printer.Disabled{}),
		Hub:      hub,
		Business: receipt.DefaultBusiness(),
		Session: controllers.SessionConfig{
			CashierPasscode: "kasirqu",
			AdminPasscode:   "adminqu",
			Secret:          []byte("router-test"),
			TTL:             time.Hour,
		},
	})
	require.NoError(t, err)
	return r, client, hub
}

func request(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, utils.JSONResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp utils.JSONResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func unlock(t *testing.T, r http.Handler, view, passcode string) string {
	t.Helper()
	code, resp := request(t, r, http.MethodPost, "/session", "", map[string]string{"view": view, "passcode": passcode})
	require.Equal(t, http.StatusOK, code, resp.Message)
	return resp.Data.(map[string]interface{})["token"].(string)
}

func checkout(name string) map[string]interface{} {
	return map[string]interface{}{
		"customer_name":  name,
		"order_type":     "TAKEAWAY",
		"payment_method": "CASH",
		"items": []models.OrderLine{
			{MenuID: "m2", Name: "Iced Lychee Tea", Price: 35000, Quantity: 1},
		},
	}
}

func TestPing(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRoutes_RoleGating(t *testing.T) {
	r, _, _ := setupTestRouter(t)
	customer := unlock(t, r, "customer", "")
	cashier := unlock(t, r, "cashier", "kasirqu")
	admin := unlock(t, r, "admin", "adminqu")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		code   int
	}{
		{"no token", http.MethodGet, "/orders", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/orders", "nope", nil, http.StatusUnauthorized},
		{"customer cannot list", http.MethodGet, "/orders", customer, nil, http.StatusForbidden},
		{"cashier lists", http.MethodGet, "/orders", cashier, nil, http.StatusOK},
		{"cashier cannot open stats", http.MethodGet, "/admin/stats", cashier, nil, http.StatusForbidden},
		{"admin opens stats", http.MethodGet, "/admin/stats", admin, nil, http.StatusOK},
		{"cashier cannot checkout", http.MethodPost, "/orders", cashier, checkout("Budi"), http.StatusForbidden},
		{"customer checks out", http.MethodPost, "/orders", customer, checkout("Budi"), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := request(t, r, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.code, code, resp.Message)
		})
	}
}

func TestPrint_DisabledTransport(t *testing.T) {
	r, client, _ := setupTestRouter(t)
	customer := unlock(t, r, "customer", "")
	cashier := unlock(t, r, "cashier", "kasirqu")

	_, resp := request(t, r, http.MethodPost, "/orders", customer, checkout("Sari"))
	id := resp.Data.(map[string]interface{})["order_id"].(string)
	_, ok := client.Order(id)
	require.True(t, ok)

	code, resp := request(t, r, http.MethodPost, "/orders/"+id+"/print", cashier, nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Printer belum diatur di konsol ini", resp.Message)
}

func TestWebSocket_PushesOrdersChanged(t *testing.T) {
	r, _, hub := setupTestRouter(t)
	customer := unlock(t, r, "customer", "")
	cashier := unlock(t, r, "cashier", "kasirqu")

	srv := httptest.NewServer(r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+cashier, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	code, _ := request(t, r, http.MethodPost, "/orders", customer, checkout("Rina"))
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg kds.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, kds.EventOrdersChanged, msg.Event)
	assert.EqualValues(t, 1, msg.Data.(map[string]interface{})["count"])
}
