package transport

import "context"

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	FromFullName string
	Text         string

	// Attachment is set when the message carries a photo or document.
	Attachment *Attachment
}

// Attachment references an uploaded file on the provider side.
// Content is fetched lazily via Gateway.FetchFile.
type Attachment struct {
	FileID   string
	FileName string
}

type Callback struct {
	ID        string
	FromID    int64
	ChatID    int64
	MessageID int
	Data      string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	ReplyMarkup    *Markup
}

// Markup is a transport-neutral inline keyboard: rows of callback buttons.
type Markup struct {
	Rows [][]Button
}

type Button struct {
	Text string
	Data string // callback data, opaque to the transport
	URL  string // if set, the button opens a URL instead
}

// Photo is an immutable in-memory image payload. The same Photo may be sent
// to many recipients; each send reads through its own cursor over Data.
type Photo struct {
	Data     []byte
	FileName string
	MIME     string
	Caption  string
}

// Document mirrors Photo for generic file payloads (receipt forwarding).
type Document struct {
	Data     []byte
	FileName string
	Caption  string
}

// Gateway abstracts the messaging provider.
//
// Start pushes inbound updates onto out until the context is cancelled or
// Stop is called. All Send/Edit/Answer calls are safe for concurrent use.
type Gateway interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendPhoto(ctx context.Context, to ChatTarget, photo Photo, opt *SendOptions) (MessageRef, error)
	SendDocument(ctx context.Context, to ChatTarget, doc Document, opt *SendOptions) (MessageRef, error)

	// EditReplyMarkup replaces the inline keyboard of an existing message.
	// A nil markup removes the keyboard.
	EditReplyMarkup(ctx context.Context, ref MessageRef, markup *Markup) error

	// AnswerCallback acks an inbound callback (stops the client spinner).
	AnswerCallback(ctx context.Context, callbackID string, text string) error

	// FetchFile downloads an attachment's content.
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}
