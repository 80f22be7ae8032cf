package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/tabroom/brackets"
	"github.com/Dosada05/tabroom/handlers"
	"github.com/Dosada05/tabroom/middleware"
	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/services"
)

type stubTabulation struct {
	services.TabulationService
}

func (stubTabulation) Standings(context.Context, int) ([]models.Standing, error) {
	return []models.Standing{{Rank: 1, TeamID: 1, TeamName: "Harbor A"}}, nil
}

type stubRoster struct {
	services.RosterService
}

func newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Tabulation: handlers.NewTabulationHandler(stubTabulation{}),
		Roster:     handlers.NewRosterHandler(stubRoster{}),
		WebSocket:  handlers.NewWebSocketHandler(brackets.NewHub(logger), nil, logger),
	}, Options{
		AllowedOrigins: []string{"https://tab.example"},
		Auth:           middleware.NewAuthenticator("secret", logger),
		Logger:         logger,
	})
	return router
}

func TestSetupRoutes_PublicReads(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/1/standings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Harbor A")
}

func TestSetupRoutes_MutationsNeedToken(t *testing.T) {
	router := newRouter()
	for _, target := range []string{
		"/tournaments/1/rounds/1/draw",
		"/tournaments/1/teams",
		"/tournaments/1/bracket",
		"/tournaments/1/standings/publish",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestSetupRoutes_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/tournaments/1/teams", nil)
	req.Header.Set("Origin", "https://tab.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)

	assert.Equal(t, "https://tab.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
