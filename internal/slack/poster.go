package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostComplaint posts a newly registered complaint to the triage channel.
// Returns the message timestamp (ts) which is used for tracking reactions.
func (p *Poster) PostComplaint(ctx context.Context, c *complaint.Complaint) (string, error) {
	text := formatComplaintMessage(c)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "React: :+1: approve | :-1: reject | :shrug: leave pending",
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted complaint to slack", "ts", ts, "report_id", c.ReportID)
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatComplaintMessage(c *complaint.Complaint) string {
	var sb strings.Builder
	rec := c.Record

	fmt.Fprintf(&sb, "*New complaint:* %s\n", c.ReportID)
	kind := rec.ComplaintType()
	if sub := rec.ComplaintSubtype(); sub != "" {
		kind += " / " + sub
	}
	if kind == "" {
		kind = "_unspecified_"
	}
	fmt.Fprintf(&sb, "*Type:* %s\n", kind)
	if d := rec.Description(); d != "" {
		fmt.Fprintf(&sb, "*Description:* %s\n", d)
	}

	loc := rec.Location()
	var where []string
	for _, key := range []string{"house_no", "area_main", "zone_or_ward_no", "pincode"} {
		if v := loc.String(key); v != "" {
			where = append(where, v)
		}
	}
	if len(where) > 0 {
		fmt.Fprintf(&sb, "*Location:* %s\n", strings.Join(where, ", "))
	}

	fmt.Fprintf(&sb, "*Complainant:* %s", c.UserName)
	if m := rec.String("complainant", "mobile"); m != "" {
		fmt.Fprintf(&sb, " (%s)", m)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "*Status:* %s", c.Status)

	return sb.String()
}
