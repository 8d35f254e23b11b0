package queue

import (
	"fmt"
	"time"
)

// Supported queue backends
const (
	BackendQueued = "queued"
	BackendSQS    = "aws_sqs"
)

// Config - unified configuration for queue service
type Config struct {
	Backend           string
	Name              string
	URL               string
	Retries           int
	VisibilityTimeout time.Duration

	// queued specified
	APIKey        string
	TLSCertFile   string
	TLSKeyFile    string
	TLSCAFile     string
	TLSServerName string
	TLSSkipVerify bool

	// AWS specified
	Region             string
	CredentialsFile    string
	CredentialsProfile string
}

// RecvMessage unified presentation for queue message.
// Handler is the opaque redelivery-fencing token (queued poll tag,
// SQS receipt handle) and is refreshed in place by Extend.
type RecvMessage struct {
	ID      string
	Body    []byte
	Handler string
}

// Client interface for queue interaction
type Client interface {
	SendMessage(body []byte) error
	ReceiveMessage() (*RecvMessage, error)
	Extend(msg *RecvMessage, visibilityTimeout time.Duration) error
	Acknowledge(msg *RecvMessage) error
}

// Init picks the queue backend from configuration,
// an empty backend means queued.
func Init(cfg Config) (Client, error) {
	switch cfg.Backend {
	case "", BackendQueued:
		return InitQueuedQueue(cfg)
	case BackendSQS:
		return InitAWSQueue(cfg)
	}
	return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
}
