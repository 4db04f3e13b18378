package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// settings is the flat configuration read from CMIS_* variables or a YAML
// file. Empty values leave the current configuration untouched.
type settings struct {
	Port           string `yaml:"port" env:"CMIS_PORT"`
	Environment    string `yaml:"environment" env:"CMIS_ENVIRONMENT"`
	LogLevel       string `yaml:"log_level" env:"CMIS_LOG_LEVEL"`
	JWTSecret      string `yaml:"jwt_secret" env:"CMIS_JWT_SECRET"`
	MaxContentSize int64  `yaml:"max_content_size" env:"CMIS_MAX_CONTENT_SIZE"`

	RepositoryID   string `yaml:"repository_id" env:"CMIS_REPOSITORY_ID"`
	RepositoryName string `yaml:"repository_name" env:"CMIS_REPOSITORY_NAME"`
	TypesFile      string `yaml:"types_file" env:"CMIS_TYPES_FILE"`
	MultiFiling    string `yaml:"multifiling" env:"CMIS_MULTIFILING"`
	Unfiling       string `yaml:"unfiling" env:"CMIS_UNFILING"`
	Query          string `yaml:"query" env:"CMIS_QUERY"`
	ACL            string `yaml:"acl" env:"CMIS_ACL"`

	// StorageURL is memory://, file:///dir or
	// s3://bucket/prefix?region=...&endpoint=...&sse=true
	StorageURL        string `yaml:"storage_url" env:"CMIS_STORAGE_URL"`
	S3Region          string `yaml:"s3_region" env:"CMIS_S3_REGION"`
	S3Endpoint        string `yaml:"s3_endpoint" env:"CMIS_S3_ENDPOINT"`
	S3AccessKeyID     string `yaml:"s3_access_key_id" env:"CMIS_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key" env:"CMIS_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    string `yaml:"s3_use_path_style" env:"CMIS_S3_USE_PATH_STYLE"`
	S3CreateBucket    string `yaml:"s3_create_bucket" env:"CMIS_S3_CREATE_BUCKET"`
	S3SSE             string `yaml:"s3_sse" env:"CMIS_S3_SSE"`
	S3SSEAlgorithm    string `yaml:"s3_sse_algorithm" env:"CMIS_S3_SSE_ALGORITHM"`
	S3SSEKMSKeyID     string `yaml:"s3_sse_kms_key_id" env:"CMIS_S3_SSE_KMS_KEY_ID"`

	EventLogging string `yaml:"event_logging" env:"CMIS_EVENT_LOGGING"`
	Metrics      string `yaml:"metrics" env:"CMIS_METRICS"`
}

// WithEnv applies CMIS_* environment variable overrides.
//
// Server:
//
//	CMIS_PORT, CMIS_ENVIRONMENT, CMIS_LOG_LEVEL, CMIS_JWT_SECRET,
//	CMIS_MAX_CONTENT_SIZE, CMIS_EVENT_LOGGING, CMIS_METRICS
//
// Repository (the first configured repository):
//
//	CMIS_REPOSITORY_ID, CMIS_REPOSITORY_NAME, CMIS_TYPES_FILE,
//	CMIS_MULTIFILING, CMIS_UNFILING, CMIS_QUERY, CMIS_ACL
//
// Storage:
//
//	CMIS_STORAGE_URL - "memory://" (default) or "s3://bucket[/prefix]?region=us-east-1&endpoint=http://localhost:9000"
//	CMIS_S3_REGION, CMIS_S3_ENDPOINT, CMIS_S3_ACCESS_KEY_ID,
//	CMIS_S3_SECRET_ACCESS_KEY, CMIS_S3_USE_PATH_STYLE, CMIS_S3_CREATE_BUCKET,
//	CMIS_S3_SSE, CMIS_S3_SSE_ALGORITHM (AES256 or aws:kms), CMIS_S3_SSE_KMS_KEY_ID
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var s settings
		if err := cleanenv.ReadEnv(&s); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return s.apply(c)
	}
}

// WithFile reads settings from a YAML file. Environment variables still take
// precedence over the file.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		var s settings
		if err := cleanenv.ReadConfig(path, &s); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return s.apply(c)
	}
}

func (s *settings) apply(c *ServerConfig) error {
	setString(&c.Port, s.Port)
	setString(&c.Environment, s.Environment)
	setString(&c.LogLevel, s.LogLevel)
	setString(&c.JWTSecret, s.JWTSecret)
	if s.MaxContentSize != 0 {
		c.MaxContentSize = s.MaxContentSize
	}
	if err := setBool(&c.EnableEventLogging, "event_logging", s.EventLogging); err != nil {
		return err
	}
	if err := setBool(&c.EnableMetrics, "metrics", s.Metrics); err != nil {
		return err
	}
	if err := s.applyRepository(c); err != nil {
		return err
	}
	return s.applyStorage(c)
}

func (s *settings) applyRepository(c *ServerConfig) error {
	if len(c.Repositories) == 0 {
		c.Repositories = []RepositoryConfig{{Capabilities: cmis.DefaultCapabilities()}}
	}
	r := &c.Repositories[0]
	setString(&r.ID, s.RepositoryID)
	setString(&r.Name, s.RepositoryName)
	setString(&r.TypesFile, s.TypesFile)
	if err := setBool(&r.Capabilities.MultiFiling, "multifiling", s.MultiFiling); err != nil {
		return err
	}
	if err := setBool(&r.Capabilities.Unfiling, "unfiling", s.Unfiling); err != nil {
		return err
	}
	if s.Query != "" {
		q := cmis.CapabilityQuery(strings.ToLower(s.Query))
		switch q {
		case cmis.CapabilityQueryNone, cmis.CapabilityQueryMetadataOnly, cmis.CapabilityQueryFullTextOnly,
			cmis.CapabilityQueryBothCombined, cmis.CapabilityQueryBothSeparate:
			r.Capabilities.Query = q
		default:
			return fmt.Errorf("unsupported query capability: %s", s.Query)
		}
	}
	if s.ACL != "" {
		a := cmis.CapabilityACL(strings.ToLower(s.ACL))
		switch a {
		case cmis.CapabilityACLNone, cmis.CapabilityACLDiscover, cmis.CapabilityACLManage:
			r.Capabilities.ACL = a
		default:
			return fmt.Errorf("unsupported acl capability: %s", s.ACL)
		}
	}
	return nil
}

func (s *settings) applyStorage(c *ServerConfig) error {
	if s.StorageURL != "" {
		if err := applyStorageURL(s.StorageURL, &c.Storage); err != nil {
			return err
		}
	}
	if c.Storage.Type != StorageS3 {
		return nil
	}
	cfg := &c.Storage.S3
	setString(&cfg.Region, s.S3Region)
	setString(&cfg.Endpoint, s.S3Endpoint)
	setString(&cfg.AccessKeyID, s.S3AccessKeyID)
	setString(&cfg.SecretAccessKey, s.S3SecretAccessKey)
	if err := setBool(&cfg.UsePathStyle, "s3_use_path_style", s.S3UsePathStyle); err != nil {
		return err
	}
	if err := setBool(&cfg.CreateBucketIfNotExist, "s3_create_bucket", s.S3CreateBucket); err != nil {
		return err
	}
	if err := setBool(&cfg.EnableSSE, "s3_sse", s.S3SSE); err != nil {
		return err
	}
	setString(&cfg.SSEAlgorithm, s.S3SSEAlgorithm)
	setString(&cfg.SSEKMSKeyID, s.S3SSEKMSKeyID)
	return nil
}

// applyStorageURL configures storage from a URL
func applyStorageURL(raw string, sc *StorageConfig) error {
	if raw == "memory" || raw == "memory://" {
		sc.Type = StorageMemory
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid storage url %s: %w", raw, err)
	}
	switch u.Scheme {
	case "file":
		dir := u.Path
		if u.Host != "" {
			dir = u.Host + u.Path
		}
		if dir == "" {
			return fmt.Errorf("fs storage directory cannot be empty in storage url")
		}
		sc.Type = StorageFS
		sc.FS.BaseDir = dir
		return nil
	case "s3":
	default:
		return fmt.Errorf("unsupported storage url format: %s (use 'memory://', 'file:///dir' or 's3://...')", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("s3 bucket name cannot be empty in storage url")
	}
	sc.Type = StorageS3
	sc.S3.Bucket = u.Host
	sc.S3.Prefix = strings.Trim(u.Path, "/")
	q := u.Query()
	setString(&sc.S3.Region, q.Get("region"))
	setString(&sc.S3.Endpoint, q.Get("endpoint"))
	setString(&sc.S3.SSEAlgorithm, q.Get("sse_algorithm"))
	setString(&sc.S3.SSEKMSKeyID, q.Get("sse_kms_key_id"))
	if err := setBool(&sc.S3.EnableSSE, "sse", q.Get("sse")); err != nil {
		return err
	}
	return setBool(&sc.S3.UsePathStyle, "path_style", q.Get("path_style"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, name, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", name, err)
	}
	*dst = v
	return nil
}
