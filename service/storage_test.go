// file: service/storage_test.go

package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	input   *s3.PutObjectInput
	deleted *s3.DeleteObjectInput
	body    string
	err     error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3MediaStorage_Upload(t *testing.T) {
	client := &fakeObjectAPI{}
	storage := NewS3MediaStorage(client, "media", "http://localhost:9000/media/")
	storage.now = func() time.Time { return time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) }

	url, err := storage.Upload(context.Background(), MediaAvatar, &Upload{
		Filename:    "Me.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})

	require.NoError(t, err)
	key := aws.ToString(client.input.Key)
	assert.True(t, strings.HasPrefix(key, "avatars/2026/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "media", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "data", client.body)
	assert.Equal(t, "http://localhost:9000/media/"+key, url)
}

func TestS3MediaStorage_UploadError(t *testing.T) {
	client := &fakeObjectAPI{err: errors.New("access denied")}
	storage := NewS3MediaStorage(client, "media", "http://cdn")

	_, err := storage.Upload(context.Background(), MediaCover, &Upload{Filename: "c.jpg", Body: strings.NewReader("x")})

	assert.EqualError(t, err, "failed to upload covers: access denied")
	assert.Nil(t, client.input.ContentType)
	assert.Nil(t, client.input.ContentLength)
}

func TestS3MediaStorage_Delete(t *testing.T) {
	client := &fakeObjectAPI{}
	storage := NewS3MediaStorage(client, "media", "http://cdn/media")

	url, err := storage.Upload(context.Background(), MediaAvatar, &Upload{Filename: "a.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	require.NoError(t, storage.Delete(context.Background(), url))

	assert.Equal(t, "media", aws.ToString(client.deleted.Bucket))
	assert.Equal(t, aws.ToString(client.input.Key), aws.ToString(client.deleted.Key))
}

func TestS3MediaStorage_DeleteForeignURL(t *testing.T) {
	client := &fakeObjectAPI{}
	storage := NewS3MediaStorage(client, "media", "http://cdn/media")

	err := storage.Delete(context.Background(), "http://elsewhere/avatars/a.png")

	assert.Error(t, err)
	assert.Nil(t, client.deleted)
}
