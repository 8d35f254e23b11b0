package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Error - raised on any msgpack encode/decode failure. Malformed payloads
// mean a protocol mismatch, callers must not retry them.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Marshal - encode a value to msgpack bytes
func Marshal(value interface{}) ([]byte, error) {
	bin, err := msgpack.Marshal(value)
	if err != nil {
		return nil, &Error{Op: "encode", Err: err}
	}
	return bin, nil
}

// Unmarshal - decode msgpack bytes into a typed destination
func Unmarshal(bin []byte, dst interface{}) error {
	if err := msgpack.Unmarshal(bin, dst); err != nil {
		return &Error{Op: "decode", Err: err}
	}
	return nil
}

// Decode - decode msgpack bytes into a generic value. Integers come back
// as int64/uint64, floats as float64, binary blobs always as []byte and
// string-keyed mappings as map[string]interface{}.
func Decode(bin []byte) (interface{}, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(bin))
	dec.UseLooseInterfaceDecoding(true)
	value, err := dec.DecodeInterface()
	if err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}
	return value, nil
}
