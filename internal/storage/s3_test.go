package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

type fakeObjects struct {
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.objects[aws.ToString(in.Key)] = string(body)
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	delete(f.objects, aws.ToString(in.Key))

	return &s3.DeleteObjectOutput{}, nil
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "staff/jdoe/avatar", AvatarKey("jdoe"))
	assert.Equal(t, "person/mariajose/mariajose.png", QRKey("mariajose", "png"))
}

func TestPutAndDelete(t *testing.T) {
	fake := newFakeObjects()
	store := NewS3(fake, "bucket")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/b", strings.NewReader("hello"), "text/plain"))
	assert.Equal(t, "hello", fake.objects["a/b"])
	assert.Equal(t, "text/plain", fake.types["a/b"])

	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	require.NoError(t, store.PutFile(ctx, "c", path, "image/png"))
	assert.Equal(t, "png", fake.objects["c"])

	require.Error(t, store.PutFile(ctx, "d", filepath.Join(t.TempDir(), "missing"), "image/png"))

	require.NoError(t, store.Delete(ctx, "a/b"))
	assert.NotContains(t, fake.objects, "a/b")
}

func TestUpstreamErrors(t *testing.T) {
	fake := newFakeObjects()
	fake.err = errors.New("access denied")
	store := NewS3(fake, "bucket")

	err := store.Put(context.Background(), "k", strings.NewReader(""), "text/plain")
	require.ErrorIs(t, err, apperr.ErrUpstream)

	err = store.Delete(context.Background(), "k")
	require.ErrorIs(t, err, apperr.ErrUpstream)
}
