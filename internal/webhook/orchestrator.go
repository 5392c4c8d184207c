package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/botmakerhq/hostbot/internal/errors"
	"github.com/botmakerhq/hostbot/internal/files"
	"github.com/botmakerhq/hostbot/internal/sanitize"
)

// Orchestrator ties webhook-management calls to the user's file store. Every
// operation names a stored script and is refused locally, without touching
// the network, when that script does not exist.
type Orchestrator struct {
	client        *Client
	store         files.Store
	publicBaseURL string
	log           *slog.Logger
}

// NewOrchestrator creates an Orchestrator. publicBaseURL is the externally
// reachable root under which uploaded scripts are served.
func NewOrchestrator(client *Client, store files.Store, publicBaseURL string, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		client:        client,
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// TargetURL derives the public webhook URL for a user's stored script.
func (o *Orchestrator) TargetURL(userID int64, name string) string {
	return o.publicBaseURL + "/" + strconv.FormatInt(userID, 10) + "/" + sanitize.FileName(name)
}

// Register points the webhook of the bot owning token at the user's stored
// script named name.
func (o *Orchestrator) Register(ctx context.Context, token string, userID int64, name string) (Result, error) {
	name, err := o.requireFile(ctx, userID, name)
	if err != nil {
		return Result{}, err
	}

	url := o.TargetURL(userID, name)
	o.log.Info("registering webhook",
		slog.Int64("user_id", userID),
		slog.String("file", name),
	)

	return o.client.SetWebhook(token, url), nil
}

// Query fetches the current webhook registration of the bot owning token.
// The named script anchors the request to a stored file the user still owns.
func (o *Orchestrator) Query(ctx context.Context, token string, userID int64, name string) (Result, error) {
	if _, err := o.requireFile(ctx, userID, name); err != nil {
		return Result{}, err
	}

	return o.client.WebhookInfo(token), nil
}

// Unregister removes the webhook registration of the bot owning token.
func (o *Orchestrator) Unregister(ctx context.Context, token string, userID int64, name string) (Result, error) {
	if _, err := o.requireFile(ctx, userID, name); err != nil {
		return Result{}, err
	}

	return o.client.DeleteWebhook(token), nil
}

func (o *Orchestrator) requireFile(ctx context.Context, userID int64, name string) (string, error) {
	name = sanitize.FileName(name)
	if name == "" {
		return "", apperrors.NewValidationError("file name is empty after sanitization")
	}

	exists, err := o.store.Exists(ctx, userID, name)
	if err != nil {
		return "", apperrors.NewStorageError(err)
	}
	if !exists {
		return "", apperrors.NewNotFoundError(name)
	}

	return name, nil
}

// Pretty renders the API response for echoing back to the user: indented
// JSON with the registered webhook URL masked. Falls back to the description
// when no response body is available.
func (r Result) Pretty() string {
	if len(r.Raw) == 0 {
		return r.Description
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(r.Raw, &payload); err != nil {
		return string(r.Raw)
	}

	redactWebhookURL(payload)

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return string(r.Raw)
	}

	return string(pretty)
}

// redactWebhookURL masks the url field of a getWebhookInfo result so that
// echoed responses do not leak the script location.
func redactWebhookURL(payload map[string]interface{}) {
	result, ok := payload["result"].(map[string]interface{})
	if !ok {
		return
	}

	url, ok := result["url"].(string)
	if !ok || url == "" {
		return
	}

	result["url"] = "https://[REDACTED]"
}
