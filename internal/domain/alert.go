package domain

import "time"

// Channel identifies a delivery channel for outbound notifications.
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelPush Channel = "push"
)

// AlertInfo is the ephemeral instruction for one escalation run. It is not
// persisted; it lives only as long as the timers scheduled from it.
type AlertInfo struct {
	SessionID          string
	Channel            Channel
	Recipients         []string
	SenderAddress      string
	Message            string
	ReminderMessage    string
	FallbackMessage    string
	ReminderTimeout    time.Duration
	FallbackTimeout    time.Duration
	FallbackRecipients []string
}
