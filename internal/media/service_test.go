package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string
	failAfter int
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}, failAfter: -1}
}

func (f *fakeStore) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.objects) >= f.failAfter {
		return "", errors.New("bucket unavailable")
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.objects[object] = contentType
	return "https://cdn.test/" + object, nil
}

func (f *fakeStore) Delete(_ context.Context, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, object)
	return f.deleteErr
}

func (f *fakeStore) ObjectFromURL(raw string) (string, bool) {
	object := strings.TrimPrefix(raw, "https://cdn.test/")
	return object, object != raw
}

func (f *fakeStore) has(object string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[object]
	return ok
}

func fileHeaders(t *testing.T, contents ...[]byte) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for i, content := range contents {
		part, err := w.CreateFormFile("images", "file"+string(rune('a'+i))+".bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}

func newTestService(t *testing.T, store ObjectStore) *Service {
	t.Helper()
	svc, err := NewService(store, config.MediaConfig{MaxFiles: 3, AllowedTypes: []string{"image/png", "image/jpeg"}}, "products", logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestUploadImagesStoresEveryFile(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	urls, err := svc.UploadImages(context.Background(), fileHeaders(t, pngHeader, pngHeader))
	require.NoError(t, err)
	require.Len(t, urls, 2)
	for _, url := range urls {
		assert.True(t, strings.HasPrefix(url, "https://cdn.test/products/"), url)
		assert.True(t, strings.HasSuffix(url, ".png"), url)
	}
	assert.Len(t, store.objects, 2)
	for _, contentType := range store.objects {
		assert.Equal(t, "image/png", contentType)
	}
}

func TestUploadImagesRejectsNonImages(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	_, err := svc.UploadImages(context.Background(), fileHeaders(t, pngHeader, []byte("just some text")))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, store.objects, "first upload should be rolled back")
}

func TestUploadImagesRollsBackOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAfter = 1
	svc := newTestService(t, store)

	_, err := svc.UploadImages(context.Background(), fileHeaders(t, pngHeader, pngHeader))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, store.objects)
}

func TestUploadImagesCombinesCleanupErrors(t *testing.T) {
	store := newFakeStore()
	store.failAfter = 1
	store.deleteErr = errors.New("delete denied")
	svc := newTestService(t, store)

	_, err := svc.UploadImages(context.Background(), fileHeaders(t, pngHeader, pngHeader))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Contains(t, err.Error(), "delete denied")
}

func TestUploadImagesLimitsAndMissingStore(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.UploadImages(context.Background(), fileHeaders(t, pngHeader, pngHeader, pngHeader, pngHeader))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	urls, err := svc.UploadImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, urls)

	noStore := newTestService(t, nil)
	_, err = noStore.UploadImages(context.Background(), fileHeaders(t, pngHeader))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestDeleteImagesSkipsForeignURLs(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	urls, err := svc.UploadImages(ctx, fileHeaders(t, pngHeader))
	require.NoError(t, err)
	require.Len(t, urls, 1)
	object := strings.TrimPrefix(urls[0], "https://cdn.test/")
	require.True(t, store.has(object))

	require.NoError(t, svc.DeleteImages(ctx, []string{"https://elsewhere.test/a.png", urls[0]}))
	assert.False(t, store.has(object))
}
