// cmd/web/main.go
//
// JYE labeling service – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap: vault (optional), layered config, daily rotating logger,
//     record store, labeling service.
//
//  2. Optional GeoIP database for access-log country hints.
//
//  3. Router: request id, client info, access log, recoverer, security
//     headers, optional HTTPS redirect, then /api, /healthz, and /metrics.
//
//  4. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanizio/jye-barcode/internal/api"
	"github.com/yanizio/jye-barcode/internal/app"
	"github.com/yanizio/jye-barcode/internal/logger"
	"github.com/yanizio/jye-barcode/internal/requestinfo"
	"github.com/yanizio/jye-barcode/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Bootstrap ───────────────────────────────────────────────────
	//
	a, err := app.Bootstrap(ctx, app.Options{TeeLog: logger.IsTTY()})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer a.Close()
	cfg := a.Config

	//
	// ── 2.  GeoIP (optional) ────────────────────────────────────────────
	//
	geo, err := requestinfo.OpenGeo(cfg.Abs(cfg.HTTP.GeoIPDB))
	if err != nil {
		a.Log.Warnw("geoip database unavailable; country hints disabled",
			"path", cfg.HTTP.GeoIPDB, "err", err)
	}
	defer geo.Close()

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	h := api.New(a.Service, a.Ping)
	root := api.NewRouter(h, api.RouterOptions{
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
		Geo:        geo,
	})

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, root, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})
	if err := server.Run(ctx, srv); err != nil {
		a.Log.Errorw("http server", "err", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Infow("server stopped")
}
