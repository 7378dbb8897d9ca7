package decision

import (
	"context"
	"errors"
	"sync"

	kit "lotbot/internal/transport"
)

// fakeGateway records calls and fails sends for chat ids listed in failSend.
type fakeGateway struct {
	mu sync.Mutex

	photoSends []photoSend
	texts      []textSend
	acks       []string
	edits      []kit.MessageRef

	failSend map[int64]bool
	failAck  bool
	failEdit bool
	failText bool
}

type photoSend struct {
	chatID  int64
	dataLen int
	markup  *kit.Markup
}

type textSend struct {
	chatID int64
	text   string
}

func (f *fakeGateway) Start(ctx context.Context, out chan<- kit.Update) error { return nil }
func (f *fakeGateway) Stop(ctx context.Context) error                         { return nil }

func (f *fakeGateway) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failText {
		return kit.MessageRef{}, errors.New("text send refused")
	}
	f.texts = append(f.texts, textSend{chatID: to.ChatID, text: text})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.texts)}, nil
}

func (f *fakeGateway) SendPhoto(ctx context.Context, to kit.ChatTarget, photo kit.Photo, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend[to.ChatID] {
		return kit.MessageRef{}, errors.New("recipient unreachable")
	}
	var m *kit.Markup
	if opt != nil {
		m = opt.ReplyMarkup
	}
	f.photoSends = append(f.photoSends, photoSend{chatID: to.ChatID, dataLen: len(photo.Data), markup: m})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.photoSends)}, nil
}

func (f *fakeGateway) SendDocument(ctx context.Context, to kit.ChatTarget, doc kit.Document, opt *kit.SendOptions) (kit.MessageRef, error) {
	return kit.MessageRef{ChatID: to.ChatID, MessageID: 1}, nil
}

func (f *fakeGateway) EditReplyMarkup(ctx context.Context, ref kit.MessageRef, markup *kit.Markup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit {
		return errors.New("edit refused")
	}
	f.edits = append(f.edits, ref)
	return nil
}

func (f *fakeGateway) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAck {
		return errors.New("ack refused")
	}
	f.acks = append(f.acks, callbackID)
	return nil
}

func (f *fakeGateway) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	return nil, errors.New("not implemented")
}
