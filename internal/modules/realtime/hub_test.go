package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"therapyspace/internal/domain"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, allowGlobal bool) (*httptest.Server, *Hub, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil)
	tokens := jwt.New("secret", time.Hour)

	r := gin.New()
	NewHandler(hub, tokens, allowGlobal, nil, nil).RegisterRoutes(r.Group("/api/v1"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, tokens
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/bookings" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestHub_RoutesEventsByOwnership(t *testing.T) {
	srv, hub, tokens := setupTestServer(t, true)

	janeToken, err := tokens.Issue(domain.Viewer{Email: "jane@example.com", BookingIDs: []string{"j1"}})
	require.NoError(t, err)

	global := dial(t, srv, "")
	jane := dial(t, srv, "?token="+janeToken)
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.BookingChanged(booking.EventCancelled, domain.Booking{ID: "b1", ClientEmail: "bob@example.com"})
	// same email, but not a booking jane's pass was issued for
	hub.BookingChanged(booking.EventCreated, domain.Booking{ID: "j2", ClientEmail: "jane@example.com"})
	hub.BookingChanged(booking.EventCreated, domain.Booking{ID: "j1", ClientEmail: "Jane@Example.com"})

	ev := readEvent(t, global)
	assert.Equal(t, booking.EventCancelled, ev.Type)
	assert.Equal(t, "b1", ev.Booking.ID)
	ev = readEvent(t, global)
	assert.Equal(t, "j2", ev.Booking.ID)
	ev = readEvent(t, global)
	assert.Equal(t, "j1", ev.Booking.ID)

	ev = readEvent(t, jane)
	assert.Equal(t, booking.EventCreated, ev.Type)
	assert.Equal(t, "j1", ev.Booking.ID)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	srv, hub, _ := setupTestServer(t, true)

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RequiresTokenWhenGlobalDisabled(t *testing.T) {
	srv, _, _ := setupTestServer(t, false)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/bookings"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
