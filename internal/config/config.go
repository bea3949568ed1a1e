package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	PostgreSQL
	AMQP
	HTTP
	StatusCache
	Worker
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

type AMQP struct {
	URL        string
	MessageTTL time.Duration
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StatusCache struct {
	MaxEntries int
	TTL        time.Duration
}

type Worker struct {
	Consumers int
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		AMQP: AMQP{
			URL:        cmd.String("amqp-url"),
			MessageTTL: cmd.Duration("amqp-message-ttl"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
		StatusCache: StatusCache{
			MaxEntries: int(cmd.Int("status-cache-max-entries")),
			TTL:        cmd.Duration("status-cache-ttl"),
		},
		Worker: Worker{
			Consumers: int(cmd.Int("workers")),
		},
	}
}
