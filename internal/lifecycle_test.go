package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/RichardAwuor/Nyota-KE-sub000/config"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/api"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/db"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/engine"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/model"
	"github.com/RichardAwuor/Nyota-KE-sub000/internal/store"
)

// TestAllocationLifecycle walks a gig through the full fallback path over
// the HTTP surface: creation, direct offer, an unanswered offer window, the
// lazy broadcast cascade and the first-acceptance-wins race resolution.
// Windows are shrunk so the test crosses real deadlines in milliseconds.
func TestAllocationLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(gdb))

	s := store.NewGormStore(gdb)
	ctx := context.Background()

	lat, lon := -1.30, 36.80
	require.NoError(t, s.UpsertClient(ctx, &model.Client{ID: "client-1", Name: "Wanjiru", Phone: "+254700000001"}))
	for _, p := range []model.Provider{
		{ID: "p1", Name: "Akinyi", Gender: model.GenderFemale, Latitude: &lat, Longitude: &lon, CommuteDistanceKm: 10, SubscriptionStatus: model.SubscriptionActive},
		{ID: "p2", Name: "Otieno", Gender: model.GenderMale, Latitude: &lat, Longitude: &lon, CommuteDistanceKm: 10, SubscriptionStatus: model.SubscriptionActive},
	} {
		require.NoError(t, s.UpsertProvider(ctx, &p))
	}

	offerWindow := 80 * time.Millisecond
	eng := engine.New(s, nil, engine.Options{
		SelectionWindow: time.Minute,
		OfferWindow:     offerWindow,
	})
	router := api.NewRouter(eng, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 1,
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 1. Client posts a gig and gets ranked candidates back.
	w := do(http.MethodPost, "/gigs", gin.H{
		"clientId":     "client-1",
		"category":     "cleaning",
		"latitude":     lat,
		"longitude":    lon,
		"paymentOffer": 1000,
		"durationDays": 1,
		"address":      "Kilimani",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Gig              model.Gig         `json:"gig"`
		MatchedProviders []json.RawMessage `json:"matchedProviders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	gigID := created.Gig.ID
	assert.Len(t, created.MatchedProviders, 2)

	// 2. Client direct-selects p1 inside the selection window.
	w = do(http.MethodPost, "/gigs/"+gigID+"/select-provider", gin.H{"providerId": "p1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 3. p1 never answers; the offer window elapses.
	time.Sleep(offerWindow + 40*time.Millisecond)

	// 4. The next status read observes the crossed deadline and performs
	// the broadcast cascade.
	w = do(http.MethodGet, "/gigs/"+gigID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st engine.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, model.PhaseBroadcast, st.Phase)
	assert.True(t, st.IsBroadcast)
	assert.Equal(t, int64(0), st.AcceptOfferTimeRemainingSeconds)

	// 5. p1's stale direct acceptance is refused.
	w = do(http.MethodPost, "/gigs/"+gigID+"/accept-direct-offer", gin.H{"providerId": "p1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "OfferExpired")

	// 6. p2 wins the broadcast race; p1's later attempt conflicts.
	w = do(http.MethodPost, "/gigs/"+gigID+"/accept-broadcast-offer", gin.H{"providerId": "p2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(http.MethodPost, "/gigs/"+gigID+"/accept-broadcast-offer", gin.H{"providerId": "p1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 7. The winner is terminal and visible everywhere.
	gig, err := s.GetGig(ctx, gigID)
	require.NoError(t, err)
	require.NotNil(t, gig.AcceptedProviderID)
	assert.Equal(t, "p2", *gig.AcceptedProviderID)
	assert.Equal(t, model.PhaseAccepted, gig.Phase())

	records, err := s.BroadcastRecords(ctx, gigID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		if r.ProviderID == "p2" {
			assert.Equal(t, model.BroadcastAccepted, r.Status)
		}
	}
}
