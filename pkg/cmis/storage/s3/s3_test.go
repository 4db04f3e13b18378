package s3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("InvalidSSE", func(t *testing.T) {
		_, err := New(Config{Bucket: "test-bucket", SSEAlgorithm: "rot13"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid SSE algorithm")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, "test-bucket", backend.bucket)
		assert.NotNil(t, backend.uploader)
	})

	t.Run("CustomEndpoint", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "test-bucket",
			Region:          "eu-west-1",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", backend.config.Region)
	})
}

func TestS3Backend_SSE(t *testing.T) {
	t.Run("DefaultsToAES256", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			EnableSSE:       true,
		})
		require.NoError(t, err)
		assert.Equal(t, "AES256", backend.config.SSEAlgorithm)

		input := &s3.PutObjectInput{}
		backend.applySSE(input)
		assert.Equal(t, types.ServerSideEncryptionAes256, input.ServerSideEncryption)
		assert.Nil(t, input.SSEKMSKeyId)
	})

	t.Run("KMS", func(t *testing.T) {
		b := &Backend{config: Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"}}
		input := &s3.PutObjectInput{}
		b.applySSE(input)
		assert.Equal(t, types.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
		require.NotNil(t, input.SSEKMSKeyId)
		assert.Equal(t, "key-1", *input.SSEKMSKeyId)
	})

	t.Run("Disabled", func(t *testing.T) {
		b := &Backend{config: Config{SSEAlgorithm: "aws:kms"}}
		input := &s3.PutObjectInput{}
		b.applySSE(input)
		assert.Empty(t, input.ServerSideEncryption)
	})
}

func TestS3Backend_Key(t *testing.T) {
	b := &Backend{}
	assert.Equal(t, "repo/abc", b.key("repo/abc"))

	b.config.Prefix = "cmis/"
	assert.Equal(t, "cmis/repo/abc", b.key("repo/abc"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NotFound{})))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchBucket"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}
