// Package mail delivers transactional email: rendering, SMTP transport and
// a fire-and-forget dispatcher.
package mail

import "context"

// Message is a single outgoing HTML email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
