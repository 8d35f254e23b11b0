package schema

import (
	"fmt"
	"math"
)

// Error - a decoded response does not match the expected shape.
// Signals a protocol/version mismatch, never retried.
type Error struct {
	Path string
	Want string
	Got  interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: %s: want %s, got %T", e.Path, e.Want, e.Got)
}

// Map - expect a string-keyed mapping
func Map(path string, value interface{}) (map[string]interface{}, error) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, &Error{Path: path, Want: "map", Got: value}
	}
	return m, nil
}

// List - expect an ordered list
func List(path string, value interface{}) ([]interface{}, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, &Error{Path: path, Want: "list", Got: value}
	}
	return list, nil
}

// Field - expect a key to be present in a mapping
func Field(path string, m map[string]interface{}, key string) (interface{}, error) {
	value, ok := m[key]
	if !ok {
		return nil, &Error{Path: path + "." + key, Want: "present", Got: nil}
	}
	return value, nil
}

// String - expect a string
func String(path string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", &Error{Path: path, Want: "string", Got: value}
	}
	return s, nil
}

// Bytes - expect a binary blob
func Bytes(path string, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, &Error{Path: path, Want: "bytes", Got: value}
}

// Uint - expect a non-negative integer
func Uint(path string, value interface{}) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return 0, &Error{Path: path, Want: "non-negative integer", Got: value}
		}
		return uint64(v), nil
	}
	return 0, &Error{Path: path, Want: "integer", Got: value}
}

// Uint32 - expect a non-negative integer that fits in 32 bits
func Uint32(path string, value interface{}) (uint32, error) {
	v, err := Uint(path, value)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, &Error{Path: path, Want: "32-bit unsigned integer", Got: value}
	}
	return uint32(v), nil
}
