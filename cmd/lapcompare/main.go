package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"justapengu.in/lapcompare"
	"justapengu.in/lapcompare/internal/archive"
	"justapengu.in/lapcompare/internal/metrics"
	"justapengu.in/lapcompare/internal/roster"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Parse()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	config, err := lapcompare.ReadConfig(configPath)

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	level, _ := config.LogLevel()
	logger.SetLevel(level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := metrics.New(registry)

	sessionArchive := archive.New(config.Archive.Path, logger)

	store, err := roster.Open(config.Roster.Path, sessionArchive.Drivers, m, logger)

	if err != nil {
		logger.WithError(err).Fatal("Could not open driver roster")
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("Could not close driver roster")
		}
	}()

	manager := lapcompare.NewComparisonManager(sessionArchive, store, m, logger, config.Comparison.Segments, config.Comparison.MaxSegments)
	server := lapcompare.NewHTTP(config.HTTP.Listen, manager, registry, logger)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Could not stop HTTP server")
		}
	}()

	logger.Infof("Serving sessions from %s", config.Archive.Path)

	if err := server.Listen(); err != nil {
		logger.WithError(err).Error("Could not run HTTP server")
	}

	logger.Infof("Server stopped. Exiting")
}
