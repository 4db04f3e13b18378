package config

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	fsstorage "github.com/tendant/simple-cmis/pkg/cmis/storage/fs"
	s3storage "github.com/tendant/simple-cmis/pkg/cmis/storage/s3"
)

// WithPort sets the HTTP listen port.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return errors.New("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithRepository adds a repository, replacing one with the same id.
func WithRepository(r RepositoryConfig) Option {
	return func(c *ServerConfig) error {
		if r.ID == "" {
			return errors.New("repository id cannot be empty")
		}
		for i := range c.Repositories {
			if c.Repositories[i].ID == r.ID {
				c.Repositories[i] = r
				return nil
			}
		}
		c.Repositories = append(c.Repositories, r)
		return nil
	}
}

// WithRepositories replaces the configured repositories.
func WithRepositories(repos ...RepositoryConfig) Option {
	return func(c *ServerConfig) error {
		c.Repositories = append([]RepositoryConfig(nil), repos...)
		return nil
	}
}

// WithMemoryStorage keeps content streams in process memory.
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageConfig{Type: StorageMemory}
		return nil
	}
}

// WithFSStorage stores content streams as files below dir.
func WithFSStorage(dir string) Option {
	return func(c *ServerConfig) error {
		if dir == "" {
			return errors.New("fs storage directory cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageFS, FS: fsstorage.Config{BaseDir: dir}}
		return nil
	}
}

// WithS3Storage stores content streams in an S3 bucket.
func WithS3Storage(cfg s3storage.Config) Option {
	return func(c *ServerConfig) error {
		if cfg.Bucket == "" {
			return errors.New("s3 bucket cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageS3, S3: cfg}
		return nil
	}
}

// WithMaxContentSize limits the size of one content stream.
func WithMaxContentSize(n int64) Option {
	return func(c *ServerConfig) error {
		if n < 0 {
			return errors.New("max content size cannot be negative")
		}
		c.MaxContentSize = n
		return nil
	}
}

// WithJWTSecret enables bearer token authentication.
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithEventLogging toggles logging of object events.
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithMetrics enables operation metrics registered with reg; nil uses the
// default Prometheus registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = true
		c.registerer = reg
		return nil
	}
}

// WithoutMetrics disables operation metrics.
func WithoutMetrics() Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = false
		return nil
	}
}
