package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"giftlist-api/internal/cache"
	"giftlist-api/internal/config"
	"giftlist-api/internal/handler"
	"giftlist-api/internal/hub"
	"giftlist-api/internal/middleware"
	"giftlist-api/internal/repository"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const testLoginKey = "operator-key"

type api struct {
	t    *testing.T
	srv  *httptest.Server
	live *hub.Hub
}

func newAPI(t *testing.T) *api {
	t.Helper()
	log := logger.Discard()

	store, err := repository.Open(context.Background(), config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, log)
	require.NoError(t, err)

	c := cache.NewMemoryCache(time.Hour)
	reg := prometheus.NewRegistry()
	live := hub.New(config.LiveConfig{SendBuffer: 16}, reg, log)

	views := service.NewListViews(store, c, time.Minute, log)
	tokens := service.NewTokenService(c, time.Hour, log)
	auth := service.NewAuthService(store, tokens, bcrypt.MinCost, log)

	r := New(Config{
		Handler:         handler.New("giftlist-api", "test", map[string]handler.Pinger{"database": store}, live),
		AuthHandler:     handler.NewAuthHandler(auth, log),
		ListHandler:     handler.NewListHandler(service.NewListService(store, views, live, log), log),
		CategoryHandler: handler.NewCategoryHandler(service.NewCategoryService(store, views, live, log), log),
		ItemHandler:     handler.NewItemHandler(service.NewItemService(store, views, live, log), log),
		LiveHandler:     handler.NewLiveHandler(live, nil, log),
		AdminHandler:    handler.NewAdminHandler(live, "sqlite", "memory"),
		AuthMiddleware:  middleware.RequireOwner(auth),
		AdminKey:        testLoginKey,
		Metrics:         reg,
		Logger:          log,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		live.Shutdown()
		srv.Close()
		c.Close()
		store.Close()
	})
	return &api{t: t, srv: srv, live: live}
}

// do sends a JSON request and decodes the envelope. headers are key/value
// pairs.
func (a *api) do(method, path string, body any, headers ...string) (int, envelope) {
	a.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type ids struct {
	Token      string
	ListID     string
	CategoryID string
	ItemID     string
}

// owner registers and logs in an owner, then creates a list with one
// category and one item.
func (a *api) owner(email, slug string) ids {
	a.t.Helper()

	status, _ := a.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "name": "Ana",
	})
	require.Equal(a.t, http.StatusCreated, status)

	status, env := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": "correct-horse",
	})
	require.Equal(a.t, http.StatusOK, status)
	login := decode[struct{ Token string }](a.t, env)
	require.True(a.t, strings.HasPrefix(login.Token, "glt_"))

	auth := []string{"X-Token", login.Token}
	status, env = a.do(http.MethodPost, "/api/v1/lists", map[string]string{"slug": slug, "title": "Chá da Ana"}, auth...)
	require.Equal(a.t, http.StatusCreated, status)
	list := decode[struct{ ID string }](a.t, env)

	status, env = a.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Cozinha", "listId": list.ID}, auth...)
	require.Equal(a.t, http.StatusCreated, status)
	category := decode[struct{ ID string }](a.t, env)

	status, env = a.do(http.MethodPost, "/api/v1/items", map[string]any{"name": "Liquidificador", "price": 199.9, "categoryId": category.ID}, auth...)
	require.Equal(a.t, http.StatusCreated, status)
	item := decode[struct{ ID string }](a.t, env)

	return ids{Token: login.Token, ListID: list.ID, CategoryID: category.ID, ItemID: item.ID}
}

func TestRouter_Health(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = a.do(http.MethodGet, "/api/v1/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	ready := decode[handler.ReadyResponse](t, env)
	assert.True(t, ready.Ready)

	status, env = a.do(http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, status)
	st := decode[handler.StatusResponse](t, env)
	assert.Equal(t, "ok", st.Checks.Database)
}

func TestRouter_Metrics(t *testing.T) {
	a := newAPI(t)

	resp, err := a.srv.Client().Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "giftlist_live_connections")
}

func TestRouter_AdminStatsRequireLoginKey(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	status, _ := a.do(http.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// An owner session is not enough.
	status, _ = a.do(http.MethodGet, "/api/v1/admin/stats", nil, "X-Token", o.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := a.do(http.MethodGet, "/api/v1/admin/stats", nil, middleware.LoginKeyHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = a.do(http.MethodGet, "/api/v1/admin/stats", nil, middleware.LoginKeyHeader, testLoginKey)
	require.Equal(t, http.StatusOK, status)
	stats := decode[struct {
		DBType string `json:"db_type"`
		Live   struct {
			Connections int
			Rooms       int
		}
	}](t, env)
	assert.Equal(t, "sqlite", stats.DBType)
	assert.Equal(t, 0, stats.Live.Connections)
}

func TestRouter_ReserveFlow(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	status, env := a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": "Maria"})
	require.Equal(t, http.StatusOK, status)
	item := decode[struct {
		Status        string
		PurchaserName string
		Revision      int64
	}](t, env)
	assert.Equal(t, "RESERVED", item.Status)
	assert.Equal(t, "Maria", item.PurchaserName)
	assert.Equal(t, int64(2), item.Revision)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": "João"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/cancel", nil, "Authorization", "Bearer "+o.Token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AVAILABLE", decode[struct{ Status string }](t, env).Status)

	status, _ = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": "João"})
	require.Equal(t, http.StatusOK, status)

	auth := []string{"X-Token", o.Token}
	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/confirm", nil, auth...)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PURCHASED", decode[struct{ Status string }](t, env).Status)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/confirm", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PRECONDITION_FAILED", env.Error.Code)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/cancel", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "PRECONDITION_FAILED", env.Error.Code)
}

func TestRouter_ReserveValidation(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	status, env := a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": strings.Repeat("M", 201)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, _ = a.do(http.MethodPatch, "/api/v1/items/missing/reserve", map[string]string{"purchaserName": "Maria"})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestRouter_ConcurrentReserveHasOneWinner(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	const guests = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < guests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _ := a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": fmt.Sprintf("guest-%d", i)})
			mu.Lock()
			codes[status]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, codes[http.StatusOK])
	assert.Equal(t, guests-1, codes[http.StatusConflict])
}

func TestRouter_OwnerRoutesRequireSession(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")
	other := a.owner("bia@example.com", "casamento-bia")

	status, env := a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/confirm", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = a.do(http.MethodGet, "/api/v1/lists/mine", nil, "X-Token", "glt_bogus")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = a.do(http.MethodDelete, "/api/v1/items/"+o.ItemID, nil, "X-Token", other.Token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = a.do(http.MethodGet, "/api/v1/lists/mine", nil, "X-Token", o.Token)
	require.Equal(t, http.StatusOK, status)
	mine := decode[[]struct{ Slug string }](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, "cha-da-ana", mine[0].Slug)

	status, _ = a.do(http.MethodPost, "/api/v1/auth/logout", nil, "X-Token", o.Token)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = a.do(http.MethodGet, "/api/v1/lists/mine", nil, "X-Token", o.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_PublicListView(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	type view struct {
		Slug       string
		OwnerName  string
		Categories []struct {
			Name  string
			Items []struct {
				ID     string
				Status string
			}
		}
	}

	status, env := a.do(http.MethodGet, "/api/v1/lists/cha-da-ana", nil)
	require.Equal(t, http.StatusOK, status)
	v := decode[view](t, env)
	assert.Equal(t, "Ana", v.OwnerName)
	require.Len(t, v.Categories, 1)
	require.Len(t, v.Categories[0].Items, 1)
	assert.Equal(t, "AVAILABLE", v.Categories[0].Items[0].Status)

	status, _ = a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve", map[string]string{"purchaserName": "Maria"})
	require.Equal(t, http.StatusOK, status)

	_, env = a.do(http.MethodGet, "/api/v1/lists/cha-da-ana", nil)
	v = decode[view](t, env)
	assert.Equal(t, "RESERVED", v.Categories[0].Items[0].Status)

	status, _ = a.do(http.MethodGet, "/api/v1/lists/nope-nope", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(http.MethodDelete, "/api/v1/lists/id/"+o.ListID, nil, "X-Token", o.Token)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = a.do(http.MethodGet, "/api/v1/lists/cha-da-ana", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_RouteSegmentSlugsAreRefused(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	status, env := a.do(http.MethodPost, "/api/v1/lists", map[string]string{"slug": "mine", "title": "Minha"}, "X-Token", o.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)

	// Guests keep getting the owner route's 401, never a list view.
	status, _ = a.do(http.MethodGet, "/api/v1/lists/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_ReservationBroadcastSkipsOrigin(t *testing.T) {
	a := newAPI(t)
	o := a.owner("ana@example.com", "cha-da-ana")

	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws"
	connect := func() (*websocket.Conn, string) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })

		var hello struct {
			Event string
			Data  struct{ ConnectionID string }
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&hello))
		require.Equal(t, "connected", hello.Event)

		require.NoError(t, conn.WriteJSON(map[string]string{"event": "joinListRoom", "data": "cha-da-ana"}))
		return conn, hello.Data.ConnectionID
	}

	guest, guestID := connect()
	viewer, _ := connect()
	require.Eventually(t, func() bool {
		return len(a.live.Registry().SubscribersOf("cha-da-ana")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	status, _ := a.do(http.MethodPatch, "/api/v1/items/"+o.ItemID+"/reserve",
		map[string]string{"purchaserName": "Maria"}, handler.ConnectionIDHeader, guestID)
	require.Equal(t, http.StatusOK, status)

	var evt struct {
		Event string
		Data  struct {
			ID            string
			Status        string
			PurchaserName string
		}
	}
	require.NoError(t, viewer.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, viewer.ReadJSON(&evt))
	assert.Equal(t, "item:updated", evt.Event)
	assert.Equal(t, o.ItemID, evt.Data.ID)
	assert.Equal(t, "RESERVED", evt.Data.Status)
	assert.Equal(t, "Maria", evt.Data.PurchaserName)

	require.NoError(t, guest.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := guest.ReadMessage()
	assert.Error(t, err)
}
