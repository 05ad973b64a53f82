package storage_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/elite-matchmaking/internal/storage"
	"github.com/oggyb/elite-matchmaking/internal/testutil"
)

func TestPresignImage(t *testing.T) {
	ctx := context.Background()
	p, err := storage.NewPresigner(ctx, testutil.Config())
	require.NoError(t, err)

	up, err := p.PresignImage(ctx, "profiles/acc-1", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "profiles/acc-1/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Equal(t, "https://elite-test.s3.us-east-1.amazonaws.com/"+up.Key, up.PublicURL)
	assert.Equal(t, 300, up.ExpiresIn)

	u, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "AWS4-HMAC-SHA256", u.Query().Get("X-Amz-Algorithm"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Path, up.Key)
}

func TestPresignImage_CustomEndpoint(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config()
	cfg.S3.Endpoint = "http://localhost:9000/"

	p, err := storage.NewPresigner(ctx, cfg)
	require.NoError(t, err)

	up, err := p.PresignImage(ctx, "chat/acc-1", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.UploadURL, "http://localhost:9000/elite-test/chat/acc-1/"))
	assert.Equal(t, "http://localhost:9000/elite-test/"+up.Key, up.PublicURL)
}

func TestPresignImage_RejectsNonImages(t *testing.T) {
	ctx := context.Background()
	p, err := storage.NewPresigner(ctx, testutil.Config())
	require.NoError(t, err)

	_, err = p.PresignImage(ctx, "profiles/acc-1", "application/pdf")
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
}
