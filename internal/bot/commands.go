package bot

// Command constants for the hosting bot. Matching is case-insensitive, so
// /LIST and /list are the same command.
const (
	CommandStart         = "/start"
	CommandList          = "/list"
	CommandUpload        = "/upload"
	CommandDelete        = "/delete"
	CommandWebhook       = "/webhook"
	CommandWebhookInfo   = "/getwebhookinfo"
	CommandDeleteWebhook = "/deletewebhook"
)
