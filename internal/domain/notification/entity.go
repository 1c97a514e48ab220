package notification

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification type constants used by callers to tag outbound messages.
const (
	TypeProjectCreated   = "project.created"
	TypeStatusChanged    = "project.status_changed"
	TypeDocumentUploaded = "media.document_uploaded"
	TypeContractReady    = "document.contract_ready"
	TypeInspectionDue    = "schedule.inspection_due"
)

// Recipient is one delivery target; channels without a matching address
// are reported as failures rather than silently skipped.
type Recipient struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Channels []string `json:"channels" validate:"required,min=1"`
}

type Message struct {
	Type    string `json:"type"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// DeliveryResult is the outcome for one (recipient, channel) pair.
type DeliveryResult struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Summary is a partial-success report: the dispatch as a whole succeeds
// even when individual deliveries fail.
type Summary struct {
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []DeliveryResult `json:"results"`
}
