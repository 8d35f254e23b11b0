package storage

import (
	"time"
)

// Result - archived outcome of one processed task
type Result struct {
	TaskID    string
	Result    map[string]string
	Error     map[string]string
	CreatedDt time.Time
	UpdatedDt time.Time
}
