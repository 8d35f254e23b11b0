package config

import (
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

// QueueConfig - one named queue used by a service
type QueueConfig struct {
	Name              string `yaml:"name"`
	VisibilityTimeout int    `yaml:"visibilityTimeout"`
}

// AppConfig ...
type AppConfig struct {
	Storage struct {
		DSN string `yaml:"dsn"`
	}
	Queue struct {
		Backend string `yaml:"backend"`
	}
	Queued struct {
		URL     string `yaml:"url"`
		APIKey  string `yaml:"apikey"`
		Retries int    `yaml:"retries"`
		TLS     struct {
			CertFile           string `yaml:"certFile"`
			KeyFile            string `yaml:"keyFile"`
			CAFile             string `yaml:"caFile"`
			ServerName         string `yaml:"serverName"`
			InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
		}
	}
	AWS struct {
		URL                string `yaml:"url"`
		Region             string `yaml:"region"`
		CredentialsFile    string `yaml:"credentialsFile"`
		CredentialsProfile string `yaml:"credentialsProfile"`
	}
	Worker struct {
		Queuesrc          QueueConfig `yaml:"queuesrc"`
		Queuedst          QueueConfig `yaml:"queuedst"`
		Workers           int         `yaml:"workers"`
		ProcessingTimeout int         `yaml:"processingTimeout"`
		LogLevel          string      `yaml:"loglevel"`
	}
	Resulter struct {
		Queuesrc   QueueConfig `yaml:"queuesrc"`
		Workers    int         `yaml:"workers"`
		Expiration int         `yaml:"expiration"`
		LogLevel   string      `yaml:"loglevel"`
	}
}

// Read ...
func Read() (*AppConfig, error) {
	filename := os.Getenv("CFG_PATH")
	cfg := &AppConfig{}
	buff, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(buff, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
