package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/freundallein/queued/chassis/logging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freundallein/queued/chassis/config"
	"github.com/freundallein/queued/chassis/queue"
	"github.com/freundallein/queued/worker"
)

func queueConfig(appCfg *config.AppConfig, qcfg config.QueueConfig) queue.Config {
	cfg := queue.Config{
		Backend:           appCfg.Queue.Backend,
		Name:              qcfg.Name,
		URL:               appCfg.Queued.URL,
		Retries:           appCfg.Queued.Retries,
		VisibilityTimeout: time.Duration(qcfg.VisibilityTimeout) * time.Second,

		// queued specific
		APIKey:        appCfg.Queued.APIKey,
		TLSCertFile:   appCfg.Queued.TLS.CertFile,
		TLSKeyFile:    appCfg.Queued.TLS.KeyFile,
		TLSCAFile:     appCfg.Queued.TLS.CAFile,
		TLSServerName: appCfg.Queued.TLS.ServerName,
		TLSSkipVerify: appCfg.Queued.TLS.InsecureSkipVerify,

		// AWS specific
		Region:             appCfg.AWS.Region,
		CredentialsFile:    appCfg.AWS.CredentialsFile,
		CredentialsProfile: appCfg.AWS.CredentialsProfile,
	}
	if cfg.Backend == queue.BackendSQS {
		cfg.URL = appCfg.AWS.URL
	}
	return cfg
}

func main() {
	appCfg, err := config.Read()

	if err != nil {
		log.WithFields(log.Fields{
			"event": "config_read_failed",
		}).Fatal(err)
	}
	log.Init("worker", appCfg.Worker.LogLevel)
	log.WithFields(log.Fields{
		"event": "init_service",
	}).Info("service initialized")
	// Inbound queue
	queueSrcClient, err := queue.Init(queueConfig(appCfg, appCfg.Worker.Queuesrc))
	if err != nil {
		log.WithFields(log.Fields{
			"event": "init_queue_failed",
		}).Fatal(err)
	}
	// Results queue
	queueDstClient, err := queue.Init(queueConfig(appCfg, appCfg.Worker.Queuedst))
	if err != nil {
		log.WithFields(log.Fields{
			"event": "init_queue_failed",
		}).Fatal(err)
	}
	cfg := &worker.Config{
		QueueSrc:          queueSrcClient,
		QueueDst:          queueDstClient,
		ProcessingTimeout: time.Duration(appCfg.Worker.ProcessingTimeout) * time.Second,
		Workers:           appCfg.Worker.Workers,
	}
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	var group sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	worker.Run(ctx, cfg, &group)
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":2112",
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen: %s\n", err)
		}
	}()
	<-done
	log.WithFields(log.Fields{
		"event": "ctx_cancel",
	}).Info("received syscall")
	cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server Shutdown Failed:%+v", err)
	}
	group.Wait()
}
