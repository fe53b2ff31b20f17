package domain

// Channel identifies one external notification or audit sink.
type Channel string

const (
	ChannelSellerAlert   Channel = "seller-alert"
	ChannelCustomerAlert Channel = "customer-alert"
	ChannelAuditLog      Channel = "audit-log"
)

// AllChannels in dispatch order (no ordering guarantee is made at runtime;
// this is just the canonical enumeration).
func AllChannels() []Channel {
	return []Channel{ChannelSellerAlert, ChannelCustomerAlert, ChannelAuditLog}
}

type SendState string

const (
	SendUnsent SendState = "unsent"
	SendSent   SendState = "sent"
	SendFailed SendState = "failed"
)

// EventKind is an order lifecycle event fanned out to channels.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status-changed"
)

// NotificationState maps each channel to its last delivery outcome.
type NotificationState map[Channel]SendState

func NewNotificationState() NotificationState {
	ns := make(NotificationState, len(AllChannels()))
	for _, ch := range AllChannels() {
		ns[ch] = SendUnsent
	}
	return ns
}

// Clone returns an independent copy so callers can hand orders across
// goroutines without sharing the map.
func (ns NotificationState) Clone() NotificationState {
	out := make(NotificationState, len(ns))
	for k, v := range ns {
		out[k] = v
	}
	return out
}
