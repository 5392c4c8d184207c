package idempotency

import "fmt"

// UpdateKey identifies one Telegram message delivery. Telegram retries
// webhook deliveries until acknowledged, so the same message can arrive
// more than once; chat and message IDs pin each delivery to one execution.
func UpdateKey(chatID int64, messageID int) string {
	return fmt.Sprintf("msg:%d:%d", chatID, messageID)
}
