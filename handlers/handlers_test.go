package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"tripsplit-backend/config"
	"tripsplit-backend/database"
	"tripsplit-backend/middleware"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

// setupRouter mounts the API on a fresh SQLite database. Requests pick their
// user through a test header instead of a Firebase token.
func setupRouter(t *testing.T) *apiClient {
	t.Helper()
	database.DB = database.OpenTestDB(t)
	Init(database.DB, nil, nil, &config.Config{JWTSecret: "handler-secret", InviteTTLHours: 24, AppURL: "https://trips.example.com"})

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.GetHeader(testUserHeader)).Error; err != nil {
			utils.Unauthorized(c, "unknown test user")
			return
		}
		middleware.SetCurrentUser(c, &user)
		c.Next()
	})
	api.POST("/trips", CreateTrip)
	api.GET("/trips", GetTrips)
	api.GET("/trips/:id", GetTrip)
	api.DELETE("/trips/:id", DeleteTrip)
	api.POST("/trips/:id/members", AddMember)
	api.PUT("/trips/:id/rsvp", UpdateRSVP)
	api.POST("/trips/:id/invitations", InviteToTrip)
	api.POST("/invitations/accept", AcceptInvitation)
	api.POST("/trips/:id/spends", CreateSpend)
	api.GET("/trips/:id/spends", GetTripSpends)
	api.PUT("/spends/:id", UpdateSpend)
	api.POST("/spends/:id/close", CloseSpend)
	api.GET("/trips/:id/balances", GetTripBalances)
	api.GET("/trips/:id/ledger", GetTripLedger)
	api.GET("/balances", GetOverallBalances)
	api.GET("/trips/:id/activity", GetTripActivity)
	api.GET("/users/me", GetProfile)
	api.POST("/users/search", SearchUsers)
	r.GET("/api/admin/stats", GetAdminStats)

	return &apiClient{t: t, router: r}
}

func (a *apiClient) user(name string) models.User {
	a.t.Helper()
	user, err := services.FindOrCreateUser(context.Background(), database.DB, "uid-"+name, name+"@example.com", name)
	require.NoError(a.t, err)
	return *user
}

func (a *apiClient) do(method, path string, as uuid.UUID, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, as.String())

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestTripSpendBalanceFlow(t *testing.T) {
	api := setupRouter(t)
	ana := api.user("ana")
	ben := api.user("ben")
	cleo := api.user("cleo")

	code, env := api.do(http.MethodPost, "/api/trips", ana.ID, gin.H{"name": "Azores", "base_currency": "EUR"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	trip := decode[models.TripResponse](t, env)
	base := "/api/trips/" + trip.ID.String()

	code, env = api.do(http.MethodPost, base+"/members", ana.ID, gin.H{"email": ben.Email})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = api.do(http.MethodPost, base+"/spends", ana.ID, gin.H{
		"description": "Whale watching",
		"amount":      "120.00",
		"split_type":  "EQUAL",
		"date":        "2026-06-02",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	boat := decode[models.SpendResponse](t, env)
	assert.Len(t, boat.Assignments, 2)

	code, env = api.do(http.MethodPost, base+"/spends", ben.ID, gin.H{
		"description": "Car rental",
		"amount":      "90",
		"currency":    "USD",
		"fx_rate":     "0.9",
		"split_type":  "PERCENT",
		"splits": []gin.H{
			{"user_id": ana.ID.String(), "value": "50"},
			{"user_id": ben.ID.String(), "value": "50"},
		},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	car := decode[models.SpendResponse](t, env)
	assert.Equal(t, "81", car.NormalizedAmount.String())

	t.Run("balances", func(t *testing.T) {
		code, env := api.do(http.MethodGet, base+"/balances", ben.ID, nil)
		require.Equal(t, http.StatusOK, code)
		summary := decode[models.BalanceSummary](t, env)

		assert.Equal(t, "EUR", summary.BaseCurrency)
		require.Len(t, summary.Settlements, 1)
		s := summary.Settlements[0]
		assert.Equal(t, ben.ID.String(), s.FromUserID)
		assert.Equal(t, ana.ID.String(), s.ToUserID)
		assert.Equal(t, "19.5", s.Amount.String())
	})

	t.Run("ledger", func(t *testing.T) {
		code, env := api.do(http.MethodGet, base+"/ledger", ana.ID, nil)
		require.Equal(t, http.StatusOK, code)
		ledger := decode[models.DebtLedger](t, env)
		assert.Len(t, ledger.Entries, 2)
		require.Len(t, ledger.Pairs, 1)
		assert.Equal(t, "19.5", ledger.Pairs[0].Amount.String())
	})

	t.Run("overall balances", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/api/balances", ana.ID, nil)
		require.Equal(t, http.StatusOK, code)
		trips := decode[[]models.TripBalance](t, env)
		require.Len(t, trips, 1)
		assert.Equal(t, "19.5", trips[0].NetBalance.String())
	})

	t.Run("outsiders are kept out", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, base+"/balances", cleo.ID, nil)
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = api.do(http.MethodGet, base+"/spends", cleo.ID, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("closed spends cannot be edited", func(t *testing.T) {
		code, _ := api.do(http.MethodPost, "/api/spends/"+boat.ID.String()+"/close", ana.ID, nil)
		require.Equal(t, http.StatusOK, code)

		code, env := api.do(http.MethodPut, "/api/spends/"+boat.ID.String(), ana.ID, gin.H{"amount": "200"})
		assert.Equal(t, http.StatusConflict, code)
		assert.False(t, env.Success)

		code, env = api.do(http.MethodGet, base+"/spends?status=CLOSED", ana.ID, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Len(t, decode[[]models.SpendResponse](t, env), 1)
	})

	t.Run("activity feed", func(t *testing.T) {
		code, env := api.do(http.MethodGet, base+"/activity", ben.ID, nil)
		require.Equal(t, http.StatusOK, code)
		activities := decode[[]models.Activity](t, env)
		assert.GreaterOrEqual(t, len(activities), 4)
	})
}

func TestInvitationFlow(t *testing.T) {
	api := setupRouter(t)
	ana := api.user("ana")
	dan := api.user("dan")

	_, env := api.do(http.MethodPost, "/api/trips", ana.ID, gin.H{"name": "Madeira"})
	trip := decode[models.TripResponse](t, env)

	code, env := api.do(http.MethodPost, "/api/trips/"+trip.ID.String()+"/invitations", ana.ID, gin.H{"email": dan.Email})
	require.Equal(t, http.StatusCreated, code, env.Message)
	invite := decode[models.InvitationResponse](t, env)
	token := invite.Link[len("https://trips.example.com/join?token="):]

	code, env = api.do(http.MethodPost, "/api/invitations/accept", dan.ID, gin.H{"token": token})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = api.do(http.MethodPost, "/api/invitations/accept", dan.ID, gin.H{"token": token})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = api.do(http.MethodPost, "/api/invitations/accept", dan.ID, gin.H{"token": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(http.MethodGet, "/api/trips", dan.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.TripResponse](t, env), 1)
}

func TestRequestValidation(t *testing.T) {
	api := setupRouter(t)
	ana := api.user("ana")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "malformed trip id", method: http.MethodGet, path: "/api/trips/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "unknown trip", method: http.MethodGet, path: "/api/trips/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "trip without name", method: http.MethodPost, path: "/api/trips", body: gin.H{"base_currency": "EUR"}, wantStatus: http.StatusBadRequest},
		{name: "bad currency", method: http.MethodPost, path: "/api/trips", body: gin.H{"name": "X", "base_currency": "EURO"}, wantStatus: http.StatusBadRequest},
		{name: "short search", method: http.MethodPost, path: "/api/users/search", body: gin.H{"query": "a"}, wantStatus: http.StatusBadRequest},
		{name: "profile", method: http.MethodGet, path: "/api/users/me", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := api.do(tt.method, tt.path, ana.ID, tt.body)
			assert.Equal(t, tt.wantStatus, code)
		})
	}
}

func TestGetAdminStats(t *testing.T) {
	api := setupRouter(t)
	ana := api.user("ana")
	api.user("ben")
	_, _ = api.do(http.MethodPost, "/api/trips", ana.ID, gin.H{"name": "Faro"})

	code, env := api.do(http.MethodGet, "/api/admin/stats", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[AdminStats](t, env)
	assert.Equal(t, AdminStats{Users: 2, Trips: 1}, stats)
}
