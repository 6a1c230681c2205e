package outbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// reminderNamespace scopes deterministic reminder keys.
var reminderNamespace = uuid.MustParse("8f1d4c52-6c1e-4f0e-9b8e-2a9f3c7d1e10")

// NewKey returns a unique key for a one-off message.
func NewKey() string {
	return uuid.NewString()
}

// ReminderKey is stable for one event, user and calendar day, so a rerun of
// the reminder job on the same day maps to the same outbox row.
func ReminderKey(eventID, userID uint, day time.Time) string {
	name := fmt.Sprintf("reminder:%d:%d:%s", eventID, userID, day.Format("2006-01-02"))

	return uuid.NewSHA1(reminderNamespace, []byte(name)).String()
}
