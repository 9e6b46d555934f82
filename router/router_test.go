package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()
	os.Exit(m.Run())
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t *testing.T
	r *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db, database.SeedOptions{AdminUsername: "admin", AdminPassword: "admin123"}))

	sessions := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = sessions.Close() })

	r := SetupRouter(Deps{
		DB:                 db,
		Sessions:           sessions,
		Signer:             session.NewSigner("test-secret", 0),
		Hub:                live.NewHub(),
		Forecast:           services.NewForecastClient("", 0),
		CORSOrigin:         "*",
		LowStockThreshold:  5,
		LoginRatePerMinute: 1000,
	})
	return &testServer{t: t, r: r}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/login", "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, code, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(s.t, data.Token)
	return data.Token
}

func decodeID(t *testing.T, raw json.RawMessage) uint {
	t.Helper()
	var v struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &v))
	require.NotZero(t, v.ID)
	return v.ID
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	code, _ := s.do(http.MethodGet, "/menu", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodGet, "/feedback-types", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Compliment")

	code, _ = s.do(http.MethodPost, "/feedback", "", gin.H{"type_id": 1, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/feedback", "", gin.H{"type_id": 3, "rating": 5, "comment": "Lovely"})
	assert.Equal(t, http.StatusCreated, code)
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/admin/dashboard", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodPost, "/login", "", gin.H{"username": " "})
	assert.Equal(t, http.StatusBadRequest, code)

	admin := s.login("admin", "admin123")
	code, env := s.do(http.MethodGet, "/me", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Administrator")

	code, env = s.do(http.MethodPost, "/admin/staff", admin, gin.H{
		"full_name": "Ali Veli", "username": "ali", "password": "secret123", "role": "waiter",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	aliID := decodeID(t, env.Data)

	code, _ = s.do(http.MethodPost, "/admin/staff", admin, gin.H{
		"full_name": "Chef", "username": "chef", "password": "secret123", "role": "cook",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	waiter := s.login("ali", "secret123")
	code, _ = s.do(http.MethodGet, "/waiter/tables", waiter, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/admin/dashboard", waiter, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/waiter/tables", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	// Suspending a member ends their sessions.
	code, env = s.do(http.MethodPut, fmt.Sprintf("/admin/staff/%d", aliID), admin, gin.H{
		"full_name": "Ali Veli", "username": "ali", "role": "waiter", "account_status": "suspended",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	code, _ = s.do(http.MethodGet, "/waiter/tables", waiter, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodPost, "/login", "", gin.H{"username": "ali", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/logout", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/me", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOrderFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	code, env := s.do(http.MethodPost, "/admin/tables", admin, gin.H{"name": "T1"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	tableID := decodeID(t, env.Data)

	code, env = s.do(http.MethodPost, "/admin/categories", admin, gin.H{"name": "Mains"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	catID := decodeID(t, env.Data)

	code, _ = s.do(http.MethodPost, "/admin/products", admin, gin.H{"category_id": catID, "name": "Adana Kebap", "stock": 3})
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = s.do(http.MethodPost, "/admin/products", admin, gin.H{
		"category_id": catID, "name": "Adana Kebap", "price": "12,50", "stock": 3,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	productID := decodeID(t, env.Data)

	_, env = s.do(http.MethodPost, "/admin/staff", admin, gin.H{
		"full_name": "Ali Veli", "username": "ali", "password": "secret123", "role": "waiter",
	})
	waiter := s.login("ali", "secret123")

	itemPath := fmt.Sprintf("/waiter/tables/%d/items", tableID)
	code, env = s.do(http.MethodPost, itemPath, waiter, gin.H{"product_id": productID})
	require.Equal(t, http.StatusOK, code, env.Message)
	var added struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
		OrderCreated bool `json:"order_created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.True(t, added.OrderCreated)
	orderID := added.Order.ID

	code, _ = s.do(http.MethodPost, itemPath, waiter, gin.H{"product_id": productID})
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(http.MethodDelete, fmt.Sprintf("%s/%d", itemPath, productID), waiter, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Item removed", env.Message)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/waiter/tables/%d/items", tableID+100), waiter, gin.H{"product_id": productID})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodPost, "/waiter/tables/abc/items", waiter, gin.H{"product_id": productID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/waiter/tables/%d/order", tableID), waiter, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":"12.50"`)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/waiter/orders/%d/status", orderID), waiter, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(http.MethodPut, fmt.Sprintf("/waiter/orders/%d/status", orderID), waiter, gin.H{"status": "served"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPut, fmt.Sprintf("/waiter/orders/%d/note", orderID), waiter, gin.H{"note": "no onions"})
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/waiter/orders/%d/payment", orderID), waiter, gin.H{"payment_method_id": 1})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, env.Message, "12,50 TL")
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/waiter/orders/%d/payment", orderID), waiter, gin.H{"payment_method_id": 1})
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(http.MethodGet, "/admin/tables", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"status":"empty"`)

	code, env = s.do(http.MethodGet, "/admin/reports", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Adana Kebap")

	code, env = s.do(http.MethodGet, "/admin/orders?status=completed", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)

	code, _ = s.do(http.MethodGet, "/admin/logs?action=payment_take", admin, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWaiterCalls(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")
	_, env := s.do(http.MethodPost, "/admin/tables", admin, gin.H{"name": "Garden 1"})
	tableID := decodeID(t, env.Data)

	code, _ := s.do(http.MethodPost, fmt.Sprintf("/tables/%d/call-waiter", tableID), "", gin.H{"note": "Bill please"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/tables/%d/call-waiter", tableID), "", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/tables/999/call-waiter", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/waiter/calls", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"count":1`)
}

func TestReportExports(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	for path, ctype := range map[string]string{
		"/admin/reports/pdf":  "application/pdf",
		"/admin/reports/xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	} {
		req := httptest.NewRequest(http.MethodGet, path+"?from=2024-03-01&to=2024-03-31", nil)
		req.Header.Set("Authorization", "Bearer "+admin)
		w := httptest.NewRecorder()
		s.r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, ctype, w.Header().Get("Content-Type"), path)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment", path)
		assert.NotZero(t, w.Body.Len(), path)
	}

	code, env := s.do(http.MethodGet, "/admin/reports/forecast", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Forecasting service is unavailable", env.Message)
}
