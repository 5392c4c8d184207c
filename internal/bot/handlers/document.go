package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/sanitize"
	"github.com/botmakerhq/hostbot/internal/scan"
	"github.com/botmakerhq/hostbot/pkg/metrics"
)

// Downloader fetches file content from Telegram. *telebot.Bot satisfies it.
type Downloader interface {
	File(file *telebot.File) (io.ReadCloser, error)
}

// NewDocumentHandler accepts an uploaded document: sanitize the name, apply
// the extension and size policy, download, gate the content, then store.
func NewDocumentHandler(
	store files.Store,
	policy files.Policy,
	scanner *scan.Scanner,
	downloader Downloader,
	publicBaseURL string,
	log *slog.Logger,
) Handler {
	if log == nil {
		log = slog.Default()
	}
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	return func(c telebot.Context) error {
		if c.Sender() == nil || c.Message() == nil || c.Message().Document == nil {
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID
		doc := c.Message().Document

		name := sanitize.FileName(doc.FileName)
		if name == "" {
			metrics.RecordUpload("rejected_name", 0)
			return apperrors.NewValidationError("The file needs a usable name.")
		}

		if !policy.ExtensionAllowed(name) {
			metrics.RecordUpload("rejected_extension", 0)
			return apperrors.NewValidationError(fmt.Sprintf("Files of this type are not accepted. Allowed: %s.",
				strings.Join(policy.AllowedExtensions, ", ")))
		}

		// Telegram reports the size up front; refuse before downloading.
		if doc.FileSize > policy.MaxFileSize {
			metrics.RecordUpload("rejected_size", 0)
			return apperrors.NewTooLargeError(files.FormatBytes(policy.MaxFileSize, 2))
		}

		content, err := download(downloader, &doc.File, policy.MaxFileSize)
		if err != nil {
			if errors.Is(err, errBodyTooLarge) {
				metrics.RecordUpload("rejected_size", 0)
				return apperrors.NewTooLargeError(files.FormatBytes(policy.MaxFileSize, 2))
			}

			log.Error("failed to download document",
				slog.Int64("user_id", userID),
				slog.String("file", name),
				slog.Any("error", err),
			)
			metrics.RecordUpload("download_failed", 0)
			return apperrors.NewTransportError("telegram file api", err)
		}

		if policy.ScanUploads && scanner != nil {
			if findings := scanner.Scan(content); len(findings) > 0 {
				log.Warn("upload rejected by content gate",
					slog.Int64("user_id", userID),
					slog.String("file", name),
					slog.Any("findings", findings),
				)
				metrics.RecordUpload("rejected_content", 0)
				return apperrors.NewContentRejectedError(findings)
			}
		}

		if err := store.Save(ctx, userID, name, content); err != nil {
			metrics.RecordUpload("rejected_policy", 0)
			return err
		}

		metrics.RecordUpload("accepted", int64(len(content)))
		log.Info("file stored",
			slog.Int64("user_id", userID),
			slog.String("file", name),
			slog.Int("size", len(content)),
		)

		return reply(c, fmt.Sprintf(
			"✅ Saved as `%s` (%s).\nPublic URL: `%s/%d/%s`\nUse /webhook to point a bot at it.",
			name, files.FormatBytes(int64(len(content)), 2), publicBaseURL, userID, name,
		))
	}
}

var errBodyTooLarge = errors.New("file body exceeds the size limit")

func download(downloader Downloader, file *telebot.File, maxSize int64) ([]byte, error) {
	rc, err := downloader.File(file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// The declared size was already checked; the limit guards against a
	// body that does not match it.
	content, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > maxSize {
		return nil, errBodyTooLarge
	}

	return content, nil
}
