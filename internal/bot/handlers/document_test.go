package handlers

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/scan"
)

type fakeDownloader struct {
	content []byte
	calls   int
}

func (f *fakeDownloader) File(file *telebot.File) (io.ReadCloser, error) {
	f.calls++
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func docUpdate(userID int64, name string, size int64) *fakeContext {
	c := textUpdate(userID, "")
	c.message.Document = &telebot.Document{
		File:     telebot.File{FileSize: size},
		FileName: name,
	}
	return c
}

func scriptsPolicy() files.Policy {
	return files.Policy{
		AllowedExtensions: []string{"php"},
		ScanUploads:       true,
		MaxFiles:          10,
		MaxFileSize:       1 << 20,
	}
}

func TestDocumentHandler_AcceptsCleanScript(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{content: []byte("<?php echo 'hi';")}

	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	c := docUpdate(1, "echo.php", 16)
	require.NoError(t, h(c))

	exists, err := store.Exists(context.Background(), 1, "echo.php")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, c.lastText(t), "https://scripts.example.com/1/echo.php")
}

func TestDocumentHandler_SanitizesFileName(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{content: []byte("<?php")}

	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	require.NoError(t, h(docUpdate(1, "../../etc/my bot.php", 5)))

	exists, err := store.Exists(context.Background(), 1, "my_bot.php")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDocumentHandler_RejectsDisallowedExtension(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{content: []byte("echo hi")}

	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	err := h(docUpdate(1, "run.sh", 7))
	assert.ErrorIs(t, err, apperrors.NewValidationError(""))
	assert.Zero(t, dl.calls, "disallowed extension must not trigger a download")
}

func TestDocumentHandler_RejectsOversizeBeforeDownload(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{content: []byte("x")}

	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	err := h(docUpdate(1, "big.php", 2<<20))
	assert.ErrorIs(t, err, apperrors.NewTooLargeError(""))
	assert.Zero(t, dl.calls)
}

func TestDocumentHandler_RejectsDeniedContent(t *testing.T) {
	store := newStore(t)
	dl := &fakeDownloader{content: []byte("<?php shell_exec($_GET['cmd']);")}

	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	err := h(docUpdate(1, "backdoor.php", 31))
	assert.ErrorIs(t, err, apperrors.NewContentRejectedError(nil))

	exists, existsErr := store.Exists(context.Background(), 1, "backdoor.php")
	require.NoError(t, existsErr)
	assert.False(t, exists, "rejected content must not be stored")
}

func TestDocumentHandler_RejectsDuplicateName(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(context.Background(), 1, "echo.php", []byte("first")))

	dl := &fakeDownloader{content: []byte("<?php")}
	h := NewDocumentHandler(store, scriptsPolicy(), scan.NewScanner(scan.DefaultDenyList),
		dl, "https://scripts.example.com", testLogger())

	err := h(docUpdate(1, "echo.php", 5))
	assert.ErrorIs(t, err, apperrors.NewNameConflictError("echo.php"))
}
