package slack

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
)

// ReactionEvent is a reaction relayed from Slack over NATS.
type ReactionEvent struct {
	Reaction  string `json:"reaction"`
	UserID    string `json:"user_id"`
	Channel   string `json:"channel"`
	MessageTS string `json:"message_ts"`
}

// ReactionStatus maps a reaction emoji name to the status it sets. ok is false
// for reactions that leave the complaint alone.
func ReactionStatus(reaction string) (status complaint.Status, ok bool) {
	switch reaction {
	case "+1", "thumbsup", "white_check_mark":
		return complaint.StatusApproved, true
	case "-1", "thumbsdown", "x":
		return complaint.StatusRejected, true
	default:
		return "", false
	}
}

// ParseReactionEvent accepts both the forwarder's metadata wrapper and a flat
// event body.
func ParseReactionEvent(data []byte) (*ReactionEvent, error) {
	var wrapper struct {
		Metadata map[string]string `json:"metadata"`
		ReactionEvent
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse reaction event: %w", err)
	}

	evt := wrapper.ReactionEvent
	if md := wrapper.Metadata; md != nil {
		evt = ReactionEvent{
			Reaction:  md["text"],
			UserID:    md["user_id"],
			Channel:   md["channel_id"],
			MessageTS: md["message_ts"],
		}
	}

	// Strip surrounding colons, e.g. ":+1:".
	if len(evt.Reaction) > 2 && strings.HasPrefix(evt.Reaction, ":") && strings.HasSuffix(evt.Reaction, ":") {
		evt.Reaction = evt.Reaction[1 : len(evt.Reaction)-1]
	}
	if evt.MessageTS == "" {
		return nil, fmt.Errorf("parse reaction event: missing message_ts")
	}
	return &evt, nil
}
