package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"therapyspace/internal/config"
	"therapyspace/internal/database"
	"therapyspace/internal/domain"
	"therapyspace/internal/modules/mybookings"
	"therapyspace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func testConfig(allowGlobal bool) *config.Config {
	return &config.Config{
		AppEnv:              "test",
		JWTSecret:           "test-secret",
		ClientTokenTTL:      time.Hour,
		CatalogStartDate:    time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
		CatalogDaysAhead:    60,
		AvailabilitySeed:    1,
		UndoTTL:             5 * time.Second,
		WizardSessionTTL:    time.Minute,
		AllowGlobalBookings: allowGlobal,
		SubmitRatePerMinute: 60,
		SubmitBurst:         10,
	}
}

func setupApp(t *testing.T, allowGlobal bool) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:app_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	return New(testConfig(allowGlobal), nil, repository.NewBookingRepository(db), mybookings.NewMemoryUndoStore(), prometheus.NewRegistry())
}

func do(t *testing.T, a *App, method, path, body, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func firstOpenSlot(t *testing.T, a *App, practitionerID string) domain.TimeSlot {
	t.Helper()
	return openSlots(t, a, practitionerID, 1)[0]
}

func openSlots(t *testing.T, a *App, practitionerID string, n int) []domain.TimeSlot {
	t.Helper()
	p, err := a.Directory.Get(practitionerID)
	require.NoError(t, err)
	var out []domain.TimeSlot
	for _, s := range p.Slots {
		if s.Available {
			out = append(out, s)
		}
		if len(out) == n {
			return out
		}
	}
	t.Fatalf("fewer than %d open slots for %s", n, practitionerID)
	return nil
}

type submission struct {
	Booking     domain.Booking `json:"booking"`
	ClientToken string         `json:"clientToken"`
}

// bookThroughWizard walks a fresh wizard session to a single booking.
func bookThroughWizard(t *testing.T, a *App, slot domain.TimeSlot, email, pass string) submission {
	t.Helper()
	code, env := do(t, a, http.MethodPost, "/api/v1/wizard/sessions", "", "")
	require.Equal(t, http.StatusCreated, code)
	var session struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	base := "/api/v1/wizard/sessions/" + session.SessionID

	code, _ = do(t, a, http.MethodPost, base+"/practitioner", `{"practitionerId":"dr-sarah-chen"}`, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, a, http.MethodPost, base+"/slot", fmt.Sprintf(`{"date":%q,"time":%q}`, slot.Date, slot.Time), "")
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, a, http.MethodPost, base+"/continue", "", "")
	require.Equal(t, http.StatusOK, code)

	body := fmt.Sprintf(`{"clientName":"Client","clientEmail":%q,"clientPhone":"555-0100"}`, email)
	code, env = do(t, a, http.MethodPost, base+"/submit", body, pass)
	require.Equal(t, http.StatusCreated, code)
	var out submission
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.ClientToken)
	return out
}

func listIDs(t *testing.T, env envelope) []string {
	t.Helper()
	var list struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	ids := make([]string, 0, len(list.Bookings))
	for _, b := range list.Bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestWizardToMyBookingsFlow(t *testing.T) {
	a := setupApp(t, false)

	code, env := do(t, a, http.MethodPost, "/api/v1/wizard/sessions", "", "")
	require.Equal(t, http.StatusCreated, code)
	var session struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	base := "/api/v1/wizard/sessions/" + session.SessionID

	code, _ = do(t, a, http.MethodPost, base+"/practitioner", `{"practitionerId":"dr-sarah-chen"}`, "")
	require.Equal(t, http.StatusOK, code)

	slot := firstOpenSlot(t, a, "dr-sarah-chen")
	code, _ = do(t, a, http.MethodPost, base+"/slot", fmt.Sprintf(`{"date":%q,"time":%q}`, slot.Date, slot.Time), "")
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, a, http.MethodPost, base+"/continue", "", "")
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, a, http.MethodPost, base+"/submit", `{"clientName":" ","clientEmail":"nope","clientPhone":"555"}`, "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Name is required", env.Error.Details["clientName"])
	assert.Equal(t, "Email is invalid", env.Error.Details["clientEmail"])

	code, env = do(t, a, http.MethodPost, base+"/submit", `{"clientName":"Jane Doe","clientEmail":"jane@example.com","clientPhone":"555-0100"}`, "")
	require.Equal(t, http.StatusCreated, code)
	var submitted submission
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	require.NotEmpty(t, submitted.ClientToken)
	assert.Equal(t, slot.Date, submitted.Booking.Date)
	assert.Equal(t, domain.BookingConfirmed, submitted.Booking.Status)

	code, env = do(t, a, http.MethodGet, "/api/v1/my-bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, env = do(t, a, http.MethodGet, "/api/v1/my-bookings", "", submitted.ClientToken)
	require.Equal(t, http.StatusOK, code)
	var mine struct {
		Bookings []domain.Booking `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Bookings, 1)
	assert.Equal(t, submitted.Booking.ID, mine.Bookings[0].ID)

	other, err := a.Tokens.Issue(domain.Viewer{Email: "bob@example.com", BookingIDs: []string{"someone-else"}})
	require.NoError(t, err)
	code, env = do(t, a, http.MethodPost, "/api/v1/my-bookings/"+submitted.Booking.ID+"/cancel-prompt", "", other)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, _ = do(t, a, http.MethodPost, "/api/v1/my-bookings/"+submitted.Booking.ID+"/cancel-prompt", "", submitted.ClientToken)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, a, http.MethodPost, "/api/v1/my-bookings/cancel-prompt/confirm", "", submitted.ClientToken)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, a, http.MethodGet, "/api/v1/bookings/"+submitted.Booking.ID, "", submitted.ClientToken)
	require.Equal(t, http.StatusOK, code)
	var stored struct {
		Booking domain.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, domain.BookingCancelled, stored.Booking.Status)

	code, _ = do(t, a, http.MethodPost, "/api/v1/my-bookings/undo", "", submitted.ClientToken)
	require.Equal(t, http.StatusOK, code)

	got, err := a.Store.Get(t.Context(), submitted.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestBookingsRequirePassWhenGlobalDisabled(t *testing.T) {
	a := setupApp(t, false)
	_, err := a.Store.Create(t.Context(), domain.Booking{
		ID: "b1", PractitionerID: "dr-sarah-chen", Date: "2026-01-05", Time: "09:00 AM",
		ClientName: "Jane", ClientEmail: "jane@example.com", ClientPhone: "1",
	})
	require.NoError(t, err)

	code, env := do(t, a, http.MethodGet, "/api/v1/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, env = do(t, a, http.MethodGet, "/api/v1/bookings/b1", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, env = do(t, a, http.MethodPost, "/api/v1/bookings", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestPassIsNotGrantedByTypedEmail(t *testing.T) {
	a := setupApp(t, false)
	slots := openSlots(t, a, "dr-sarah-chen", 3)

	victim := bookThroughWizard(t, a, slots[0], "victim@example.com", "")
	// the attacker types the victim's address into the form
	attacker := bookThroughWizard(t, a, slots[1], "victim@example.com", "")

	code, env := do(t, a, http.MethodGet, "/api/v1/my-bookings", "", attacker.ClientToken)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{attacker.Booking.ID}, listIDs(t, env))

	code, env = do(t, a, http.MethodGet, "/api/v1/bookings?email=victim@example.com", "", attacker.ClientToken)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{attacker.Booking.ID}, listIDs(t, env))

	code, env = do(t, a, http.MethodGet, "/api/v1/bookings/"+victim.Booking.ID, "", attacker.ClientToken)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, env = do(t, a, http.MethodPost, "/api/v1/my-bookings/"+victim.Booking.ID+"/cancel-prompt", "", attacker.ClientToken)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, env = do(t, a, http.MethodPatch, "/api/v1/my-bookings/"+victim.Booking.ID+"/reschedule",
		fmt.Sprintf(`{"date":%q,"time":%q}`, slots[2].Date, slots[2].Time), attacker.ClientToken)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	// booking again with the pass extends it instead of replacing it
	again := bookThroughWizard(t, a, slots[2], "victim@example.com", victim.ClientToken)
	code, env = do(t, a, http.MethodGet, "/api/v1/my-bookings", "", again.ClientToken)
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{victim.Booking.ID, again.Booking.ID}, listIDs(t, env))

	got, err := a.Store.Get(t.Context(), victim.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestGlobalViewerWhenAllowed(t *testing.T) {
	a := setupApp(t, true)

	code, env := do(t, a, http.MethodGet, "/api/v1/my-bookings", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupApp(t, true)

	code, env := do(t, a, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	_, _ = do(t, a, http.MethodPost, "/api/v1/wizard/sessions", "", "")

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "therapyspace_wizard_active_sessions 1")
}

func TestCatalogRoutesMounted(t *testing.T) {
	a := setupApp(t, true)

	code, env := do(t, a, http.MethodGet, "/api/v1/practitioners", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = do(t, a, http.MethodGet, "/api/v1/practitioners/nobody", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
