package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/botmakerhq/hostbot/internal/bot/handlers"
	"github.com/botmakerhq/hostbot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName reduces the update to a low-cardinality label. Free-form
// workflow input all lands under "text".
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if msg := c.Message(); msg != nil && msg.Document != nil {
		return "document"
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		if at := strings.Index(cmd, "@"); at > 0 {
			cmd = cmd[:at]
		}
		return strings.ToLower(cmd)
	}

	if text != "" {
		return "text"
	}

	return "unknown"
}
