package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("authors/abc/", "portrait.JPG")
	assert.Regexp(t, `^authors/abc/[0-9a-f-]{36}\.jpg$`, key)
	assert.NotEqual(t, key, ObjectKey("authors/abc/", "portrait.JPG"))
}

func TestNewS3Images(t *testing.T) {
	_, err := NewS3Images(context.Background(), "", "us-east-1", "", "", "")
	assert.Error(t, err)

	imgs, err := NewS3Images(context.Background(), "shelf", "eu-west-1", "AKID", "SECRET", "")
	require.NoError(t, err)
	assert.Equal(t, "https://shelf.s3.eu-west-1.amazonaws.com", imgs.publicBase)

	imgs, err = NewS3Images(context.Background(), "shelf", "eu-west-1", "AKID", "SECRET", "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com", imgs.publicBase)

	// Foreign URLs are never sent to S3.
	assert.NoError(t, imgs.Remove(context.Background(), "https://elsewhere.example.com/x.png"))
	assert.NoError(t, imgs.Remove(context.Background(), ""))
}
