package worker

import (
	"context"
	"sync"
	"time"

	log "github.com/freundallein/queued/chassis/logging"

	"github.com/freundallein/queued/chassis/metrics"
	"github.com/freundallein/queued/chassis/monkey"
	"github.com/freundallein/queued/chassis/protocol"
	"github.com/freundallein/queued/chassis/queue"
)

// Config ...
type Config struct {
	QueueSrc          queue.Client
	QueueDst          queue.Client
	ProcessingTimeout time.Duration
	Workers           int
}

func worker(ctx context.Context, cfg *Config, workerID int, group *sync.WaitGroup) {
	cliSrc := cfg.QueueSrc
	cliDst := cfg.QueueDst
	var handlers = map[string]func(*protocol.Request) *protocol.Response{
		ECHO:  HandleEcho,
		DUMMY: HandleDummy,
	}
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
			msg, err := cliSrc.ReceiveMessage()
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "receive_failed",
					"worker": workerID,
				}).Error(err)
				continue
			}
			request := &protocol.Request{}
			err = request.Unpack(msg.Body)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "receive_broken_message",
					"worker": workerID,
				}).Error(err)
				metrics.MessagesTotal.WithLabelValues("worker", "broken").Inc()
				continue
			}
			// Keep the message fenced for the whole processing window,
			// a stale poll tag after this point means it was redelivered.
			err = cliSrc.Extend(msg, cfg.ProcessingTimeout)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "extend_failed",
					"worker": workerID,
					"taskID": request.ID,
				}).Error(err)
				continue
			}
			log.WithFields(log.Fields{
				"event":  "receive_message",
				"worker": workerID,
				"method": request.Method,
				"taskID": request.ID,
			}).Info(request)
			handler, ok := handlers[request.Method]
			if !ok {
				log.WithFields(log.Fields{
					"event":  "handler_not_found",
					"worker": workerID,
					"taskID": request.ID,
				}).Error(request.Method)
				continue
			}
			response := handler(request)

			packed, err := response.Pack()
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "response_serialize_failed",
					"worker": workerID,
					"taskID": request.ID,
				}).Error(err)
				continue
			}
			err = cliDst.SendMessage(packed)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "result_send_failed",
					"worker": workerID,
					"taskID": request.ID,
				}).Error(err)
				metrics.MessagesTotal.WithLabelValues("worker", "error").Inc()
				continue
			}
			err = cliSrc.Acknowledge(msg)
			err = monkey.RandomizeError(err)
			if err != nil {
				log.WithFields(log.Fields{
					"event":  "ack_message_failed",
					"worker": workerID,
					"taskID": request.ID,
				}).Error(err)
				continue
			}
			metrics.MessagesTotal.WithLabelValues("worker", "success").Inc()
		}
	}
}

// Run ...
func Run(ctx context.Context, cfg *Config, group *sync.WaitGroup) {
	log.WithFields(log.Fields{
		"event": "start_service",
	}).Info("starting ", cfg.Workers, " workers")
	for wrk := 1; wrk <= cfg.Workers; wrk++ {
		group.Add(1)
		go worker(ctx, cfg, wrk, group)
	}
}
