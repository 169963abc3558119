package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/campaign-console/internal/app"
	"github.com/nimasrn/campaign-console/internal/config"
	"github.com/nimasrn/campaign-console/internal/handlers"
	xhttp "github.com/nimasrn/campaign-console/pkg/http"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	conf := config.Get()
	logger.Info("starting campaign console", "version", version, "commit", commit, "date", date)

	host, _ := os.Hostname()
	if err = prom.Create(host, conf.AppEnv, conf.PromNamespace); err != nil {
		logger.Error("failed registering metrics", "error", err)
		return
	}
	if conf.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(conf.AppDebugMetricsAddr, conf.AppDebugMetricsURI)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, conf)
	if err != nil {
		logger.Error("failed to start console", "error", err)
		return
	}
	defer a.Close()

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.CORSMiddleware(conf.HttpAllowedOrigin))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.TimeoutMiddleware(conf.HttpRequestTimeout))
	s.Use(xhttp.CompressMiddleware(6))

	consoleHandler := handlers.NewConsoleHandler(a.Console)
	healthHandler := handlers.NewHealthHandler(a.Client, version)

	handlers.RegisterConsoleRoutes(s.Router.Group("/console"), consoleHandler)
	handlers.RegisterHealthRoutes(s.Router, healthHandler)
	if conf.AppDebugMetricsAddr == "" {
		s.Router.GET(conf.AppDebugMetricsURI, prom.Handler())
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(conf.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
			c <- syscall.SIGTERM
		}
	}()

	<-c
	logger.Info("shutting down console")
	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("http server did not stop in time")
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
