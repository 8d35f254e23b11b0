package resulter

import (
	"context"
	"sync"
	"time"

	log "github.com/freundallein/queued/chassis/logging"

	"github.com/freundallein/queued/chassis/metrics"
	"github.com/freundallein/queued/chassis/monkey"
	"github.com/freundallein/queued/chassis/protocol"
	"github.com/freundallein/queued/chassis/queue"
	"github.com/freundallein/queued/chassis/storage"
)

// Config ...
type Config struct {
	Queue      queue.Client
	Repository storage.ResultRepository
	Workers    int
	Expiration int
}

func worker(ctx context.Context, cfg *Config, workerID int, group *sync.WaitGroup) {
	cli := cfg.Queue
	repo := cfg.Repository

	for {
		select {
		case <-ctx.Done():
			log.WithFields(log.Fields{
				"event":  "ctx_canceled",
				"worker": workerID,
			}).Info("exit goroutine")
			group.Done()
			return
		default:
			msg, err := cli.ReceiveMessage()
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "receive_failed",
					"worker": workerID,
				}).Error(err)
				continue
			}
			response := protocol.Response{}
			err = response.Unpack(msg.Body)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "received_broken_message",
					"worker": workerID,
				}).Info(err)
				metrics.MessagesTotal.WithLabelValues("resulter", "broken").Inc()
				continue
			}
			log.WithFields(log.Fields{
				"event":  "receive_result",
				"worker": workerID,
			}).Info("receive results for task")

			result := &storage.Result{
				TaskID: response.ID,
				Result: response.Result,
				Error:  response.Error,
			}
			err = repo.SaveResult(result)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "result_error",
					"worker": workerID,
					"taskID": response.ID,
				}).Error(err)
				metrics.MessagesTotal.WithLabelValues("resulter", "error").Inc()
			} else {
				log.WithFields(log.Fields{
					"event":  "result_to_storage",
					"worker": workerID,
					"taskID": response.ID,
				}).Info("save result to storage")
				metrics.MessagesTotal.WithLabelValues("resulter", "success").Inc()
			}
			err = cli.Acknowledge(msg)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "ack_message_failed",
					"worker": workerID,
					"taskID": response.ID,
				}).Error(err)
				continue
			}
		}
	}
}

func dbCleaner(ctx context.Context, cfg *Config, group *sync.WaitGroup) {
	log.WithFields(log.Fields{
		"event": "start_db_cleaner",
	}).Info("starting db cleaner with ", cfg.Expiration, "s expiration time")
	repo := cfg.Repository
	for {
		select {
		case <-ctx.Done():
			log.WithFields(log.Fields{
				"event":  "ctx_canceled",
				"worker": "db_cleaner",
			}).Info("exit goroutine")
			group.Done()
			return
		case <-time.After(time.Second * 5):
			cleaned, err := repo.CleanOldResults(cfg.Expiration)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "clean_table_failed",
					"worker": "db_cleaner",
				}).Error(err)
			}
			log.WithFields(log.Fields{
				"event":  "clean_table",
				"worker": "db_cleaner",
			}).Info("cleaned rows:", cleaned)
		}
	}
}

// Run ...
func Run(ctx context.Context, cfg *Config, group *sync.WaitGroup) {
	log.WithFields(log.Fields{
		"event": "start_service",
	}).Info("starting ", cfg.Workers, " workers")
	group.Add(1)
	go dbCleaner(ctx, cfg, group)
	for wrk := 1; wrk <= cfg.Workers; wrk++ {
		group.Add(1)
		go worker(ctx, cfg, wrk, group)
	}
}
