package client

import (
	"fmt"
	"math"
	"time"

	"github.com/freundallein/queued/chassis/codec"
	"github.com/freundallein/queued/chassis/schema"
)

// Message - a polled message with its fencing token. PollTag stays valid
// only until the next successful poll or update of the same message.
type Message struct {
	Contents []byte
	ID       uint64
	PollTag  uint32
}

// NewMessage - a message to push with its initial visibility timeout
type NewMessage struct {
	Contents          []byte
	VisibilityTimeout time.Duration
}

// TypedMessage - a polled message with codec-decoded contents
type TypedMessage struct {
	Contents interface{}
	ID       uint64
	PollTag  uint32
}

// TypedNewMessage - a message to push whose contents are codec-encoded first
type TypedNewMessage struct {
	Contents          interface{}
	VisibilityTimeout time.Duration
}

// MessageRef - message identity plus the poll tag it was last issued
type MessageRef struct {
	ID      uint64
	PollTag uint32
}

// Queue - per-queue view over a Client
type Queue struct {
	client *Client
	name   string
	prefix string
}

// Name ...
func (q *Queue) Name() string {
	return q.name
}

// floorSeconds truncates toward negative infinity so the transmitted
// window never over-promises invisibility. Negative inputs are rejected
// by the server.
func floorSeconds(d time.Duration) int64 {
	return int64(math.Floor(d.Seconds()))
}

// PollMessagesRaw ...
func (q *Queue) PollMessagesRaw(count int, visibilityTimeout time.Duration) ([]Message, error) {
	body := map[string]interface{}{
		"count":                   count,
		"visibility_timeout_secs": floorSeconds(visibilityTimeout),
	}
	decoded, err := q.client.call("poll_messages", "POST", q.prefix+"/messages/poll", body)
	if err != nil {
		return nil, err
	}
	return parsePollResponse(decoded)
}

// PollMessages - PollMessagesRaw with each contents decoded via the wire codec
func (q *Queue) PollMessages(count int, visibilityTimeout time.Duration) ([]TypedMessage, error) {
	raw, err := q.PollMessagesRaw(count, visibilityTimeout)
	if err != nil {
		return nil, err
	}
	messages := make([]TypedMessage, 0, len(raw))
	for _, msg := range raw {
		contents, err := codec.Decode(msg.Contents)
		if err != nil {
			return nil, err
		}
		messages = append(messages, TypedMessage{
			Contents: contents,
			ID:       msg.ID,
			PollTag:  msg.PollTag,
		})
	}
	return messages, nil
}

// PushMessagesRaw pushes messages and returns the server-assigned ids in
// input order. Wire fields are re-projected explicitly so extraneous caller
// properties never leak into the payload.
func (q *Queue) PushMessagesRaw(messages []NewMessage) ([]uint64, error) {
	wire := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		wire = append(wire, map[string]interface{}{
			"contents":                msg.Contents,
			"visibility_timeout_secs": floorSeconds(msg.VisibilityTimeout),
		})
	}
	body := map[string]interface{}{"messages": wire}
	decoded, err := q.client.call("push_messages", "POST", q.prefix+"/messages/push", body)
	if err != nil {
		return nil, err
	}
	return parsePushResponse(decoded)
}

// PushMessages - PushMessagesRaw with each contents encoded via the wire codec
func (q *Queue) PushMessages(messages []TypedNewMessage) ([]uint64, error) {
	raw := make([]NewMessage, 0, len(messages))
	for _, msg := range messages {
		contents, err := codec.Marshal(msg.Contents)
		if err != nil {
			return nil, err
		}
		raw = append(raw, NewMessage{
			Contents:          contents,
			VisibilityTimeout: msg.VisibilityTimeout,
		})
	}
	return q.PushMessagesRaw(raw)
}

// UpdateMessage changes a message's visibility timeout and returns the
// fresh poll tag, invalidating the presented one.
func (q *Queue) UpdateMessage(ref MessageRef, visibilityTimeout time.Duration) (uint32, error) {
	body := map[string]interface{}{
		"id":                      ref.ID,
		"poll_tag":                ref.PollTag,
		"visibility_timeout_secs": floorSeconds(visibilityTimeout),
	}
	decoded, err := q.client.call("update_message", "POST", q.prefix+"/messages/update", body)
	if err != nil {
		return 0, err
	}
	respBody, err := schema.Map("response", decoded)
	if err != nil {
		return 0, err
	}
	raw, err := schema.Field("response", respBody, "new_poll_tag")
	if err != nil {
		return 0, err
	}
	return schema.Uint32("response.new_poll_tag", raw)
}

// DeleteMessages ...
func (q *Queue) DeleteMessages(refs []MessageRef) error {
	wire := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		wire = append(wire, map[string]interface{}{
			"id":       ref.ID,
			"poll_tag": ref.PollTag,
		})
	}
	body := map[string]interface{}{"messages": wire}
	_, err := q.client.call("delete_messages", "POST", q.prefix+"/messages/delete", body)
	return err
}

func parsePollResponse(decoded interface{}) ([]Message, error) {
	body, err := schema.Map("response", decoded)
	if err != nil {
		return nil, err
	}
	raw, err := schema.Field("response", body, "messages")
	if err != nil {
		return nil, err
	}
	list, err := schema.List("response.messages", raw)
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("response.messages[%d]", i)
		entry, err := schema.Map(path, item)
		if err != nil {
			return nil, err
		}
		rawContents, err := schema.Field(path, entry, "contents")
		if err != nil {
			return nil, err
		}
		contents, err := schema.Bytes(path+".contents", rawContents)
		if err != nil {
			return nil, err
		}
		rawID, err := schema.Field(path, entry, "id")
		if err != nil {
			return nil, err
		}
		id, err := schema.Uint(path+".id", rawID)
		if err != nil {
			return nil, err
		}
		rawTag, err := schema.Field(path, entry, "poll_tag")
		if err != nil {
			return nil, err
		}
		pollTag, err := schema.Uint32(path+".poll_tag", rawTag)
		if err != nil {
			return nil, err
		}
		messages = append(messages, Message{
			Contents: contents,
			ID:       id,
			PollTag:  pollTag,
		})
	}
	return messages, nil
}

func parsePushResponse(decoded interface{}) ([]uint64, error) {
	body, err := schema.Map("response", decoded)
	if err != nil {
		return nil, err
	}
	raw, err := schema.Field("response", body, "ids")
	if err != nil {
		return nil, err
	}
	list, err := schema.List("response.ids", raw)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(list))
	for i, item := range list {
		id, err := schema.Uint(fmt.Sprintf("response.ids[%d]", i), item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
