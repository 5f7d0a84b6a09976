// Package transport abstracts how messages reach users. The bot logic
// never talks to a chat platform directly; it emits messages and
// documents through Transport, which a delivery adapter implements.
package transport

import "context"

// FilePayload is an attachment carried by an inbound update.
type FilePayload struct {
	Name string
	Data []byte
}

// Update is one inbound message from a user.
type Update struct {
	UserID      int64
	DisplayName string
	Text        string
	File        *FilePayload
}

// Transport delivers outbound messages and files to users.
type Transport interface {
	// SendMessage delivers a text message.
	SendMessage(ctx context.Context, userID int64, text string) error

	// SendDocument delivers a file from the local filesystem, with an
	// optional caption.
	SendDocument(ctx context.Context, userID int64, path, caption string) error
}
