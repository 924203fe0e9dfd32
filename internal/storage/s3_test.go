package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vidtube/internal/config"
)

type MockS3 struct {
	mock.Mock
}

func (m *MockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3Uploader_Upload(t *testing.T) {
	client := new(MockS3)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "media" &&
			strings.HasPrefix(aws.ToString(in.Key), "avatars/") &&
			strings.HasSuffix(aws.ToString(in.Key), ".png") &&
			aws.ToString(in.ContentType) == "image/png" &&
			aws.ToInt64(in.ContentLength) == 4
	})).Return(&s3.PutObjectOutput{}, nil)

	u := NewS3UploaderWithClient(client, "media", "https://cdn.example.com/")
	url, err := u.Upload(context.Background(), "avatars", &Media{
		Filename:    "Me.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	client.AssertExpectations(t)
}

func TestS3Uploader_UploadFailure(t *testing.T) {
	client := new(MockS3)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	u := NewS3UploaderWithClient(client, "media", "https://cdn.example.com")
	_, err := u.Upload(context.Background(), "covers", &Media{Filename: "c.jpg", Body: strings.NewReader("x")})

	assert.ErrorContains(t, err, "access denied")
}

func TestS3Uploader_EmptyMedia(t *testing.T) {
	u := NewS3UploaderWithClient(new(MockS3), "media", "https://cdn.example.com")

	_, err := u.Upload(context.Background(), "avatars", nil)
	assert.ErrorIs(t, err, ErrEmptyMedia)

	_, err = u.Upload(context.Background(), "avatars", &Media{Filename: "a.png"})
	assert.ErrorIs(t, err, ErrEmptyMedia)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(&config.Config{S3PublicBaseURL: "https://cdn.example.com", S3Bucket: "media"}))
	assert.Equal(t, "http://minio:9000/media",
		publicBaseURL(&config.Config{S3Endpoint: "http://minio:9000/", S3Bucket: "media"}))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com",
		publicBaseURL(&config.Config{S3Bucket: "media", S3Region: "eu-west-1"}))
}
