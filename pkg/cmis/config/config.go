// Package config assembles a service.Service from server configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/metrics"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
	fsstorage "github.com/tendant/simple-cmis/pkg/cmis/storage/fs"
	"github.com/tendant/simple-cmis/pkg/cmis/storage/memory"
	s3storage "github.com/tendant/simple-cmis/pkg/cmis/storage/s3"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// Storage backend types.
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		Repositories: []RepositoryConfig{
			{
				ID:           "default",
				Name:         "Default repository",
				Capabilities: cmis.DefaultCapabilities(),
			},
		},
		Storage:            StorageConfig{Type: StorageMemory},
		MaxContentSize:     64 << 20,
		EnableEventLogging: true,
		EnableMetrics:      true,
	}
}

// ServerConfig represents server configuration for the CMIS service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// JWTSecret enables HS256 bearer tokens; without it the principal comes
	// from the X-CMIS-User header.
	JWTSecret string

	Repositories []RepositoryConfig
	Storage      StorageConfig

	// MaxContentSize limits one content stream in bytes; zero means no limit.
	MaxContentSize int64

	EnableEventLogging bool
	EnableMetrics      bool

	registerer prometheus.Registerer
}

// RepositoryConfig describes one repository hosted by the server
type RepositoryConfig struct {
	ID          string
	Name        string
	Description string
	// TypesFile is an optional YAML file of custom types.
	TypesFile    string
	Capabilities cmis.Capabilities
}

// StorageConfig selects the content-stream backend
type StorageConfig struct {
	Type string // "memory", "fs", "s3"
	FS   fsstorage.Config
	S3   s3storage.Config
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Repositories) == 0 {
		return errors.New("at least one repository is required")
	}
	seen := make(map[string]bool, len(c.Repositories))
	for _, r := range c.Repositories {
		if r.ID == "" {
			return errors.New("repository id is required")
		}
		if seen[r.ID] {
			return fmt.Errorf("repository '%s' configured twice", r.ID)
		}
		seen[r.ID] = true
	}
	switch c.Storage.Type {
	case StorageMemory:
	case StorageFS:
		if c.Storage.FS.BaseDir == "" {
			return errors.New("fs storage requires a base directory")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("s3 storage requires a bucket")
		}
		switch c.Storage.S3.SSEAlgorithm {
		case "", "AES256", "aws:kms":
		default:
			return fmt.Errorf("s3 sse algorithm must be 'AES256' or 'aws:kms', got '%s'", c.Storage.S3.SSEAlgorithm)
		}
	default:
		return fmt.Errorf("storage type must be 'memory', 'fs' or 's3', got '%s'", c.Storage.Type)
	}
	if c.MaxContentSize < 0 {
		return errors.New("max content size must not be negative")
	}
	return nil
}

// ParseLogLevel maps a configured level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level '%s'", level)
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (*service.Service, error) {
	var options []service.Option

	manager, err := c.buildManager()
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}
	options = append(options, service.WithManager(manager))

	blobs, err := c.buildBlobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	options = append(options, service.WithBlobStore(blobs))

	if c.EnableEventLogging {
		options = append(options, service.WithEventSink(cmis.NewLogEventSink(slog.Default())))
	}

	if c.EnableMetrics {
		recorder, err := metrics.NewRecorder(c.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		options = append(options, service.WithObserver(recorder))
	}

	options = append(options, service.WithMaxContentSize(c.MaxContentSize))
	return service.New(options...)
}

// buildManager creates every configured repository with its own type registry
func (c *ServerConfig) buildManager() (*store.Manager, error) {
	m := store.NewManager()
	for _, r := range c.Repositories {
		types := typedef.NewRegistry()
		if r.TypesFile != "" {
			ids, err := types.LoadYAMLFile(r.TypesFile)
			if err != nil {
				return nil, fmt.Errorf("repository %s: %w", r.ID, err)
			}
			slog.Info("Loaded custom types", "repository_id", r.ID, "file", r.TypesFile, "count", len(ids))
		}
		_, err := m.AddRepository(store.RepositoryConfig{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Types:       types,
			Options:     []store.Option{store.WithCapabilities(r.Capabilities)},
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// buildBlobStore creates the content-stream backend
func (c *ServerConfig) buildBlobStore(ctx context.Context) (cmis.BlobStore, error) {
	switch c.Storage.Type {
	case StorageMemory:
		return memory.New(), nil
	case StorageFS:
		return fsstorage.New(c.Storage.FS)
	case StorageS3:
		return s3storage.NewWithContext(ctx, c.Storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}
}
