package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"natours_backend/internal/imageprocessor"
	"natours_backend/internal/storage"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadPart struct {
	field       string
	contentType string
	body        []byte
}

// fileHeaders собирает multipart-форму и разбирает ее обратно, как это делает gin
func fileHeaders(t *testing.T, parts ...uploadPart) map[string][]*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="f`+string(rune('0'+i))+`"`)
		h.Set("Content-Type", p.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newUploadFixture(t *testing.T) (*storage.LocalStorage, *uploadService) {
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	svc := NewUploadService(store, imageprocessor.NewProcessor(80)).(*uploadService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return store, svc
}

func TestUploadService_UserPhoto(t *testing.T) {
	store, svc := newUploadFixture(t)
	ctx := context.Background()

	files := fileHeaders(t, uploadPart{"photo", "image/png", pngBytes(t)})
	name, err := svc.UserPhoto(ctx, "u1", files["photo"][0])
	require.NoError(t, err)
	assert.Equal(t, "user-u1-1700000000000.jpeg", name)

	ok, err := store.Exists(ctx, "users/"+name)
	require.NoError(t, err)
	assert.True(t, ok)

	name, err = svc.UserPhoto(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestUploadService_RejectsNonImages(t *testing.T) {
	_, svc := newUploadFixture(t)
	ctx := context.Background()

	files := fileHeaders(t, uploadPart{"photo", "text/plain", []byte("hello")})
	_, err := svc.UserPhoto(ctx, "u1", files["photo"][0])
	assert.True(t, errors.Is(err, apperrors.ErrNotAnImage))

	// заявлен image/png, но внутри не изображение
	files = fileHeaders(t, uploadPart{"photo", "image/png", []byte("not really")})
	_, err = svc.UserPhoto(ctx, "u1", files["photo"][0])
	assert.True(t, errors.Is(err, apperrors.ErrNotAnImage))
}

func TestUploadService_TourImages(t *testing.T) {
	store, svc := newUploadFixture(t)
	ctx := context.Background()
	img := pngBytes(t)

	files := fileHeaders(t,
		uploadPart{"imageCover", "image/png", img},
		uploadPart{"images", "image/png", img},
		uploadPart{"images", "image/png", img},
	)
	out, err := svc.TourImages(ctx, "t1", files["imageCover"][0], files["images"])
	require.NoError(t, err)
	assert.Equal(t, "tour-t1-1700000000000-cover.jpeg", out.ImageCover)
	assert.Equal(t, []string{"tour-t1-1700000000000-1.jpeg", "tour-t1-1700000000000-2.jpeg"}, out.Images)

	for _, name := range append([]string{out.ImageCover}, out.Images...) {
		ok, err := store.Exists(ctx, "tours/"+name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestUploadService_TourImagesLimits(t *testing.T) {
	store, svc := newUploadFixture(t)
	ctx := context.Background()
	img := pngBytes(t)

	files := fileHeaders(t,
		uploadPart{"images", "image/png", img},
		uploadPart{"images", "image/png", img},
		uploadPart{"images", "image/png", img},
		uploadPart{"images", "image/png", img},
	)
	_, err := svc.TourImages(ctx, "t1", nil, files["images"])
	assert.True(t, errors.Is(err, apperrors.ErrTooManyImages))

	// один плохой файл - ничего не сохраняется
	files = fileHeaders(t,
		uploadPart{"imageCover", "image/png", img},
		uploadPart{"images", "application/pdf", []byte("%PDF")},
	)
	_, err = svc.TourImages(ctx, "t1", files["imageCover"][0], files["images"])
	assert.True(t, errors.Is(err, apperrors.ErrNotAnImage))

	ok, err := store.Exists(ctx, "tours/tour-t1-1700000000000-cover.jpeg")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := svc.TourImages(ctx, "t1", nil, nil)
	require.NoError(t, err)
	assert.True(t, out.Empty())
}
