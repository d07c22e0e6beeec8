package domain

// MessageType is the channel or style a generated message is tailored for.
type MessageType string

const (
	MessageTypeLinkedIn      MessageType = "linkedin"
	MessageTypeEmail         MessageType = "email"
	MessageTypeNetworking    MessageType = "networking"
	MessageTypeCollaboration MessageType = "collaboration"
)

// MessageTypes lists the recognized message types in display order.
var MessageTypes = []MessageType{
	MessageTypeLinkedIn,
	MessageTypeEmail,
	MessageTypeNetworking,
	MessageTypeCollaboration,
}

// MessageRequest is a validated request for a personalized networking message.
// Skills always holds exactly three entries drawn from the field's vocabulary.
type MessageRequest struct {
	Name           string
	Field          string
	Skills         []string
	CompanyName    string
	JobDescription string
	MessageType    MessageType
}

// Source records which path produced a message.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)
