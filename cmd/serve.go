package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xERR0R/rpzindex/api"
	"github.com/0xERR0R/rpzindex/config"
	"github.com/0xERR0R/rpzindex/evt"
	"github.com/0xERR0R/rpzindex/log"
	"github.com/0xERR0R/rpzindex/metrics"
	"github.com/0xERR0R/rpzindex/redis"
	"github.com/0xERR0R/rpzindex/rpz"

	"github.com/go-chi/chi/v5"
	chicors "github.com/go-chi/cors"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "start the rpzindex admin API and metrics endpoint (default command)",
		Run:   startServer,
	}
}

func startServer(_ *cobra.Command, _ []string) {
	var err error

	cfg, err = config.LoadConfig(configPath, true)
	if err != nil {
		log.Log().Fatalf("can't load config: %s", err)
	}

	log.ConfigureLogger(cfg.Log)

	printBanner()

	idx := rpz.NewIndex()
	idx.SetQnameWaitRecurse(cfg.QnameWaitRecurse)

	rclient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		log.Log().Fatalf("can't connect to redis: %s", err)
	}

	registerReloadPublisher(idx, rclient)

	metrics.RegisterEventListeners()
	metrics.Start(cfg.Prometheus)

	router := chi.NewRouter()

	if len(cfg.API.CORS.AllowedOrigins) > 0 {
		router.Use(chicors.Handler(chicors.Options{
			AllowedOrigins: cfg.API.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))
	}

	api.RegisterEndpoints(router, idx)

	if cfg.Prometheus.Enable {
		router.Handle(cfg.Prometheus.Path, http.DefaultServeMux)
	}

	srv := &http.Server{Handler: router}

	addr := "127.0.0.1:4000"
	if len(cfg.API.Addrs) > 0 {
		addr = cfg.API.Addrs[0]
	}

	srv.Addr = addr

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		log.Log().Infof("starting API on %s", addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Log().Fatalf("can't start API: %s", err)
		}
	}()

	go func() {
		<-signals
		log.Log().Infof("terminating...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)

		if rclient != nil {
			_ = rclient.Close()
		}

		close(done)
	}()

	evt.Bus().Publish(evt.ApplicationStarted, version, buildTime)
	<-done
}

// registerReloadPublisher wires Index zone reloads to the optional
// redis notifier, the way blocky's resolver chain subscribes its own
// side effects to evt.Bus() events.
func registerReloadPublisher(idx *rpz.Index, rclient *redis.Client) {
	if rclient == nil {
		return
	}

	_ = evt.Bus().Subscribe(evt.ZoneReloaded, func(z rpz.ZoneNum, d time.Duration) {
		origin := ""

		for _, zd := range idx.Status().Zones {
			if zd.Num == z {
				origin = zd.Origin

				break
			}
		}

		rclient.PublishReload(context.Background(), uint8(z), origin)
	})
}

func printBanner() {
	log.Log().Info("_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/")
	log.Log().Info("_/                                                              _/")
	log.Log().Info("_/   rpzindex -- RPZ trigger index                              _/")
	log.Log().Info("_/                                                              _/")
	log.Log().Infof("_/  Version: %-18s Build time: %-18s  _/", version, buildTime)
	log.Log().Info("_/                                                              _/")
	log.Log().Info("_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/_/")
}
