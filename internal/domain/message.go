// Package domain defines the transient value types that flow through a single
// webhook request. Nothing here is persisted; every value is constructed from
// an inbound Telegram update and discarded once the reply is dispatched.
package domain

// InboundMessage is the validated payload extracted from a Telegram update.
//
// MessageID is the platform-assigned identifier used for deduplication; it is
// zero when Telegram did not supply one, in which case the message is processed
// without dedup protection. ChatID addresses the originating chat for the
// outbound reply.
type InboundMessage struct {
	MessageID int
	ChatID    int64
	Text      string
}

// HasMessageID reports whether the platform assigned a usable identifier.
func (m InboundMessage) HasMessageID() bool { return m.MessageID != 0 }
