package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"edureview/internal/idtoken"
	"edureview/internal/util"
	"edureview/services/auth/internal/app"
	"edureview/services/auth/internal/config"
	"edureview/services/auth/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	accessTTL, err := config.ParseTTL(cfg.AccessTTL)
	if err != nil {
		log.Fatalf("failed to parse access TTL: %v", err)
	}
	refreshTTL, err := config.ParseTTL(cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("failed to parse refresh TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var verifier app.IdentityVerifier
	if cfg.IdentityJWKSURL != "" {
		v, err := idtoken.NewVerifier(idtoken.Config{
			JWKSURL:  cfg.IdentityJWKSURL,
			Issuer:   cfg.IdentityIssuer,
			Audience: cfg.IdentityAudience,
		})
		if err != nil {
			log.Fatalf("failed to init identity verifier: %v", err)
		}
		verifier = v
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:   cfg.DatabaseURL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		JWTSecret:     cfg.JWTSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Verifier:      verifier,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App: appCore,
	})

	handler := util.WithRequestID(util.WithRequestLog("auth", util.WithCORS(util.WithSecurityHeaders(httpServer.Router()))))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("auth server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
