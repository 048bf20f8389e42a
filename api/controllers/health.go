package controllers

import (
	"net/http"

	"github.com/snackdash/snackdash-core/api/responses"
	"github.com/snackdash/snackdash-core/pkg/config"
	"github.com/snackdash/snackdash-core/pkg/db"
	"github.com/snackdash/snackdash-core/pkg/logger"
	pkgredis "github.com/snackdash/snackdash-core/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SnackDash-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *pkgredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-SnackDash-Env", cfg.App.Env)

		checks := map[string]string{"database": "ok", "redis": "ok"}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			if logg != nil {
				logg.Warn(ctx, "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
