package conversation

import "time"

// DefaultHistoryLimit is the number of turns retained per session.
const DefaultHistoryLimit = 10

// TimestampLayout matches the ISO-8601 form the web client produces (millisecond precision, UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's history. Turns are never mutated after append.
type Turn struct {
	Role      Role   `json:"role" bson:"role"`
	Content   string `json:"content" bson:"content"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

func newTurn(role Role, content string, at time.Time) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}
