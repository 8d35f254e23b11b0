package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestPackUnpack(t *testing.T) {
	request := &Request{
		ID:     "task-1",
		Method: "echo",
		Params: map[string]string{"objectID": "7"},
	}
	packed, err := request.Pack()
	require.NoError(t, err)
	assert.Equal(t, "v0", request.Protocol)

	decoded := &Request{}
	require.NoError(t, decoded.Unpack(packed))
	assert.Equal(t, request, decoded)
}

func TestResponsePackUnpack(t *testing.T) {
	response := &Response{
		ID:    "task-1",
		Error: map[string]string{"code": "1", "message": "boom"},
	}
	packed, err := response.Pack()
	require.NoError(t, err)

	decoded := &Response{}
	require.NoError(t, decoded.Unpack(packed))
	assert.Equal(t, response, decoded)
}

func TestUnpackBroken(t *testing.T) {
	assert.Error(t, (&Request{}).Unpack([]byte{0xc1}))
}
