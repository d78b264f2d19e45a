package imagestore

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesUniqueReferences(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))

	ref1, err := store.Save(img, 7, 0)
	require.NoError(t, err)
	ref2, err := store.Save(img, 7, 0)
	require.NoError(t, err)

	assert.NotEqual(t, ref1, ref2, "identical inputs still get distinct references")
	assert.Contains(t, ref1, "detections/7_0_")

	// The reference resolves to a real file under the base path.
	_, err = os.Stat(filepath.Join(store.BasePath(), filepath.FromSlash(ref1)))
	assert.NoError(t, err)
}

func TestSaveRoundTripsBytes(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}

	ref, err := store.Save(img, 3, 0)
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, jpeg.Encode(&want, img, &jpeg.Options{Quality: jpegQuality}))

	// Resolve the reference the way API responses do, then read the file
	// the /uploads route would serve for that URL.
	url := ResolveURL(ref, "http://host")
	rel := strings.TrimPrefix(url, "http://host/uploads/")
	got, err := os.ReadFile(filepath.Join(store.BasePath(), filepath.FromSlash(rel)))
	require.NoError(t, err)

	assert.Equal(t, want.Bytes(), got, "stored bytes match an independent encode")
}

func TestSaveNilImage(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(nil, 1, 0)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(image.NewRGBA(image.Rect(0, 0, 4, 4)), 1, 0)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ref))
	_, err = os.Stat(filepath.Join(store.BasePath(), filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ref))
	assert.NoError(t, store.Delete(""))
}

func TestDeleteRejectsEscapingReference(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete("../outside.jpg"))
	assert.Error(t, store.Delete("/etc/passwd"))
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ResolveURL("", "http://host"))
	assert.Equal(t,
		"http://host/uploads/detections/a.jpg",
		ResolveURL("detections/a.jpg", "http://host"))
	assert.Equal(t,
		"http://host/uploads/detections/a.jpg",
		ResolveURL("detections/a.jpg", "http://host/"))
}
