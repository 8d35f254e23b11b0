package queue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/freundallein/queued/client"
)

// defaultIdleWait matches the SQS long-poll window so an idle
// consumer loop does not hammer the server with empty polls.
const defaultIdleWait = 5 * time.Second

// QueuedQueue implementation
type QueuedQueue struct {
	queue             *client.Queue
	visibilityTimeout time.Duration
	idleWait          time.Duration
}

// InitQueuedQueue ...
func InitQueuedQueue(cfg Config) (Client, error) {
	cli, err := client.New(client.Options{
		URL:        cfg.URL,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.Retries,
		TLS: client.TLSOptions{
			CertFile:           cfg.TLSCertFile,
			KeyFile:            cfg.TLSKeyFile,
			CAFile:             cfg.TLSCAFile,
			ServerName:         cfg.TLSServerName,
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
	})
	if err != nil {
		return nil, err
	}
	return &QueuedQueue{
		queue:             cli.Queue(cfg.Name),
		visibilityTimeout: cfg.VisibilityTimeout,
		idleWait:          defaultIdleWait,
	}, nil
}

// SendMessage ...
func (q *QueuedQueue) SendMessage(body []byte) error {
	ids, err := q.queue.PushMessagesRaw([]client.NewMessage{
		{Contents: body, VisibilityTimeout: 0},
	})
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("pushed 1 message, got %d ids", len(ids))
	}
	log.WithFields(log.Fields{
		"event": "send_message",
		"queue": "queued",
	}).Debug(ids[0])
	return nil
}

// ReceiveMessage ...
func (q *QueuedQueue) ReceiveMessage() (*RecvMessage, error) {
	polled, err := q.queue.PollMessagesRaw(1, q.visibilityTimeout)
	if err != nil {
		return nil, err
	}
	if len(polled) == 0 {
		// queued polls return at once, unlike an SQS long poll
		time.Sleep(q.idleWait)
		return nil, errors.New("no message received")
	}
	msg := &RecvMessage{
		ID:      strconv.FormatUint(polled[0].ID, 10),
		Body:    polled[0].Contents,
		Handler: packHandler(polled[0].ID, polled[0].PollTag),
	}
	log.WithFields(log.Fields{
		"event": "receive_message",
		"queue": "queued",
	}).Debug(msg.ID)
	return msg, nil
}

// Extend resets the message visibility timeout and refreshes the handler
// with the freshly issued poll tag.
func (q *QueuedQueue) Extend(msg *RecvMessage, visibilityTimeout time.Duration) error {
	ref, err := unpackHandler(msg.Handler)
	if err != nil {
		return err
	}
	newPollTag, err := q.queue.UpdateMessage(ref, visibilityTimeout)
	if err != nil {
		return err
	}
	msg.Handler = packHandler(ref.ID, newPollTag)
	log.WithFields(log.Fields{
		"event": "extend_message",
		"queue": "queued",
	}).Debug(msg.ID)
	return nil
}

// Acknowledge ...
func (q *QueuedQueue) Acknowledge(msg *RecvMessage) error {
	ref, err := unpackHandler(msg.Handler)
	if err != nil {
		return err
	}
	if err := q.queue.DeleteMessages([]client.MessageRef{ref}); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event": "delete_message",
		"queue": "queued",
	}).Debug(msg.ID)
	return nil
}

func packHandler(id uint64, pollTag uint32) string {
	return fmt.Sprintf("%d:%d", id, pollTag)
}

func unpackHandler(handler string) (client.MessageRef, error) {
	parts := strings.SplitN(handler, ":", 2)
	if len(parts) != 2 {
		return client.MessageRef{}, fmt.Errorf("broken message handler %q", handler)
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return client.MessageRef{}, fmt.Errorf("broken message handler %q", handler)
	}
	pollTag, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return client.MessageRef{}, fmt.Errorf("broken message handler %q", handler)
	}
	return client.MessageRef{ID: id, PollTag: uint32(pollTag)}, nil
}
