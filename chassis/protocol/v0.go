package protocol

import (
	"fmt"

	"github.com/freundallein/queued/chassis/codec"
)

// Request - task packet carried in queue message contents
type Request struct {
	Protocol string            `msgpack:"proto"`
	ID       string            `msgpack:"id,omitempty"`
	Method   string            `msgpack:"method"`
	Params   map[string]string `msgpack:"params"`
}

// Pack - convert struct to msgpack bytes
func (r *Request) Pack() ([]byte, error) {
	r.Protocol = "v0"
	return codec.Marshal(r)
}

// Unpack - convert msgpack bytes to struct
func (r *Request) Unpack(bin []byte) error {
	return codec.Unmarshal(bin, r)
}

// String representation
func (r *Request) String() string {
	return fmt.Sprintf("id=%s method=%s params=%s", r.ID, r.Method, r.Params)
}

// Response - task result packet
type Response struct {
	Protocol string            `msgpack:"proto"`
	ID       string            `msgpack:"id"`
	Result   map[string]string `msgpack:"result,omitempty"`
	Error    map[string]string `msgpack:"error,omitempty"`
}

// Pack - convert struct to msgpack bytes
func (r *Response) Pack() ([]byte, error) {
	r.Protocol = "v0"
	return codec.Marshal(r)
}

// Unpack - convert msgpack bytes to struct
func (r *Response) Unpack(bin []byte) error {
	return codec.Unmarshal(bin, r)
}

// String representation
func (r *Response) String() string {
	return fmt.Sprintf("id=%s result=%s error=%s", r.ID, r.Result, r.Error)
}
