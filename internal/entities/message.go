package entities

// Channel identifies how a notification leaves the system.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is a rendered message ready for a sender.
type Notification struct {
	To      string
	Subject string // email only
	Body    string
	Channel Channel
}

// DeliveryReceipt is what a sender reports back for a delivered notification.
type DeliveryReceipt struct {
	ProviderID string
}
