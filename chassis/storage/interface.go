package storage

// Config - ...
type Config struct {
	DSN string
}

// ResultRepository - ...
type ResultRepository interface {
	SaveResult(*Result) error
	CleanOldResults(expiration int) (int, error)
}
