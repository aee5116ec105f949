package controllers

import (
	"net/http"

	"github.com/tabsplit/tabsplit-backend/api/responses"
	"github.com/tabsplit/tabsplit-backend/pkg/config"
	"github.com/tabsplit/tabsplit-backend/pkg/db"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	redispkg "github.com/tabsplit/tabsplit-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TabSplit-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the API's dependencies answer. A missing Redis
// client is reported as skipped rather than failing readiness; the API can
// serve without the cache.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redispkg.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TabSplit-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true

		if dbP == nil {
			checks["database"] = "missing"
			ready = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "database readiness check failed", err)
			}
			checks["database"] = "down"
			ready = false
		} else {
			checks["database"] = "ok"
		}

		if redisClient == nil {
			checks["redis"] = "skipped"
		} else if err := redisClient.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "redis readiness check failed", err)
			}
			checks["redis"] = "down"
			ready = false
		} else {
			checks["redis"] = "ok"
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
