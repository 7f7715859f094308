package controllers

import (
	"net/http"
	"time"

	"github.com/globelconnect/esim-backend/api/responses"
	"github.com/globelconnect/esim-backend/pkg/config"
	pkgerrors "github.com/globelconnect/esim-backend/pkg/errors"
	"github.com/globelconnect/esim-backend/pkg/logger"
)

const envHeader = "X-GlobelConnect-Env"

type catalogStatus interface {
	Len() int
	UpdatedAt() time.Time
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the catalog holds at least one plan.
func HealthReady(cfg *config.Config, logg *logger.Logger, catalog catalogStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		count := catalog.Len()
		if count == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "plan catalog not loaded"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":        "ready",
			"plans":         count,
			"catalogSyncAt": catalog.UpdatedAt().UTC().Format(time.RFC3339),
		})
	}
}
