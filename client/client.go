// Package client is an HTTP client for the queued message queue service.
// It owns request serialization (msgpack), authentication, retries with
// jittered exponential backoff and the typed queue/message operations.
package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/freundallein/queued/chassis/metrics"
	"github.com/freundallein/queued/chassis/schema"
)

// TLSOptions - client TLS material, handed to the transport unmodified
type TLSOptions struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Options - immutable endpoint configuration for a Client
type Options struct {
	// URL of the queued server. An explicit http scheme selects plaintext,
	// anything else is upgraded to https.
	URL string
	// APIKey is sent as the Authorization header value verbatim.
	APIKey string
	// MaxRetries is the total attempt budget per call; 1 (the default)
	// means a single attempt with no retry.
	MaxRetries int
	TLS        TLSOptions
}

// QueueInfo - one queue descriptor from ListQueues
type QueueInfo struct {
	Name string
}

// Client - authenticated handle on one queued server
type Client struct {
	tr    *transport
	retry *retrier
}

// New ...
func New(opts Options) (*Client, error) {
	tr, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	return &Client{
		tr:    tr,
		retry: newRetrier(opts.MaxRetries),
	}, nil
}

// call runs one operation through the retry controller and records metrics.
func (c *Client) call(operation, method, path string, body interface{}) (interface{}, error) {
	start := time.Now()
	var decoded interface{}
	err := c.retry.do(func() error {
		var err error
		decoded, err = c.tr.roundTrip(method, path, body)
		return err
	})
	metrics.ObserveRequest(operation, time.Since(start), err)
	return decoded, err
}

// CreateQueue ...
func (c *Client) CreateQueue(name string) error {
	_, err := c.call("create_queue", "PUT", "/queue/"+url.PathEscape(name), nil)
	return err
}

// DeleteQueue ...
func (c *Client) DeleteQueue(name string) error {
	_, err := c.call("delete_queue", "DELETE", "/queue/"+url.PathEscape(name), nil)
	return err
}

// ListQueues ...
func (c *Client) ListQueues() ([]QueueInfo, error) {
	decoded, err := c.call("list_queues", "GET", "/queues", nil)
	if err != nil {
		return nil, err
	}
	body, err := schema.Map("response", decoded)
	if err != nil {
		return nil, err
	}
	raw, err := schema.Field("response", body, "queues")
	if err != nil {
		return nil, err
	}
	list, err := schema.List("response.queues", raw)
	if err != nil {
		return nil, err
	}
	queues := make([]QueueInfo, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("response.queues[%d]", i)
		entry, err := schema.Map(path, item)
		if err != nil {
			return nil, err
		}
		rawName, err := schema.Field(path, entry, "name")
		if err != nil {
			return nil, err
		}
		name, err := schema.String(path+".name", rawName)
		if err != nil {
			return nil, err
		}
		queues = append(queues, QueueInfo{Name: name})
	}
	return queues, nil
}

// Version - server version reported by the healthz endpoint
func (c *Client) Version() (string, error) {
	decoded, err := c.call("healthz", "GET", "/healthz", nil)
	if err != nil {
		return "", err
	}
	body, err := schema.Map("response", decoded)
	if err != nil {
		return "", err
	}
	raw, err := schema.Field("response", body, "version")
	if err != nil {
		return "", err
	}
	return schema.String("response.version", raw)
}

// Queue - a handle scoping message operations to one named queue. Pure, no I/O.
func (c *Client) Queue(name string) *Queue {
	return &Queue{
		client: c,
		name:   name,
		prefix: "/queue/" + url.PathEscape(name),
	}
}
