package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retromusic/storefront/config"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	disk, err := NewLocalDisk(t.TempDir(), "/storage/")
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "productos/guitarra.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg"))

	ok, err := disk.Exists(ctx, "productos/guitarra.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := disk.Get(ctx, "productos/guitarra.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "jpeg-bytes", string(data))

	assert.Equal(t, "/storage/productos/guitarra.jpg", disk.URL("productos/guitarra.jpg"))

	require.NoError(t, disk.Delete(ctx, "productos/guitarra.jpg"))
	require.NoError(t, disk.Delete(ctx, "productos/guitarra.jpg"))
	ok, _ = disk.Exists(ctx, "productos/guitarra.jpg")
	assert.False(t, ok)
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, p := range []string{"", "/", "..", "a\\b"} {
		_, err := cleanKey(p)
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
	k, err := cleanKey("../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", k)

	key, err := cleanKey("/productos/../productos/x.png")
	require.NoError(t, err)
	assert.Equal(t, "productos/x.png", key)

	k, err = cleanKey("a/../../b")
	require.NoError(t, err)
	assert.Equal(t, "b", k)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = b
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Disk(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	disk := NewS3DiskWithClient(fake, S3Options{Bucket: "retro", Region: "us-east-1"})

	require.NoError(t, disk.Put(ctx, "/productos/a.png", strings.NewReader("png"), "image/png"))
	assert.Equal(t, "image/png", fake.types["productos/a.png"])

	ok, err := disk.Exists(ctx, "productos/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "https://retro.s3.us-east-1.amazonaws.com/productos/a.png", disk.URL("productos/a.png"))

	require.NoError(t, disk.Delete(ctx, "productos/a.png"))
	ok, err = disk.Exists(ctx, "productos/a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsUnknownDisk(t *testing.T) {
	_, err := Open(context.Background(), config.StorageSettings{Disk: "ftp"})
	assert.Error(t, err)

	d, err := Open(context.Background(), config.StorageSettings{Disk: "local", LocalRoot: t.TempDir(), LocalURL: "/storage"})
	require.NoError(t, err)
	assert.IsType(t, &LocalDisk{}, d)
}
