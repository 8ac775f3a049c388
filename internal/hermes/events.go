package hermes

const (
	SubjectComplaintRegistered = "sahayak.complaint.registered"
	SubjectExtractionFailed    = "sahayak.extraction.failed"
	SubjectStatusChanged       = "sahayak.complaint.status_changed"
	SubjectSlackReaction       = "sahayak.slack.reaction"
)

// ComplaintRegistered is emitted after a complaint is persisted.
type ComplaintRegistered struct {
	ReportID         string `json:"report_id"`
	PersistedID      string `json:"persisted_id"`
	SessionID        string `json:"session_id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	ComplaintType    string `json:"complaint_type"`
	ComplaintSubtype string `json:"complaint_subtype,omitempty"`
	Description      string `json:"description"`
	Area             string `json:"area,omitempty"`
	Pincode          string `json:"pincode,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// ExtractionFailed carries the raw reply that could not be turned into a
// complaint, for offline debugging.
type ExtractionFailed struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"` // extract | persist
	Error     string `json:"error"`
	Raw       string `json:"raw"`
	Timestamp string `json:"timestamp"`
}

// StatusChanged is emitted when a complaint moves through the review workflow.
type StatusChanged struct {
	ReportID   string `json:"report_id"`
	Status     string `json:"status"`
	AdminID    string `json:"admin_id,omitempty"`
	AdminEmail string `json:"admin_email,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Source     string `json:"source"` // api | slack
	Timestamp  string `json:"timestamp"`
}

func (c *Client) ComplaintRegistered(evt ComplaintRegistered) error {
	return c.Publish(SubjectComplaintRegistered, evt)
}

func (c *Client) ExtractionFailed(evt ExtractionFailed) error {
	return c.Publish(SubjectExtractionFailed, evt)
}

func (c *Client) StatusChanged(evt StatusChanged) error {
	return c.Publish(SubjectStatusChanged, evt)
}
