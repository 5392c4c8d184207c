package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/session"
)

// fakeContext implements the slice of telebot.Context the handlers touch.
type fakeContext struct {
	telebot.Context
	sender  *telebot.User
	message *telebot.Message
	sent    []interface{}
}

func (f *fakeContext) Sender() *telebot.User     { return f.sender }
func (f *fakeContext) Message() *telebot.Message { return f.message }

func (f *fakeContext) Text() string {
	if f.message == nil {
		return ""
	}
	return f.message.Text
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)

	text, ok := f.sent[len(f.sent)-1].(string)
	require.True(t, ok, "last sent item is not a text message: %T", f.sent[len(f.sent)-1])

	return text
}

func textUpdate(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID},
		message: &telebot.Message{
			ID:   1,
			Text: text,
			Chat: &telebot.Chat{ID: userID},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSessions() session.Manager {
	return session.NewManager(session.NewMemoryStorage(), testLogger(), nil)
}

func newStore(t *testing.T) *files.DiskStore {
	t.Helper()

	store, err := files.NewDiskStore(t.TempDir(), files.Policy{
		MaxFiles:    10,
		MaxFileSize: 1 << 20,
	}, testLogger())
	require.NoError(t, err)

	return store
}
