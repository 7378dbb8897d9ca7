package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Gateway implements kit.Gateway on top of telebot's long poller.
type Gateway struct {
	cfg Config
	log logx.Logger

	bot       *tele.Bot
	out       chan<- kit.Update
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	runMu     sync.Mutex
	running   bool

	// droppedUpdates counts updates dropped because the consumer was slower
	// than the poll loop. Logged periodically to avoid per-update spam.
	droppedUpdates uint64
}

func New(cfg Config, log logx.Logger) (*Gateway, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Gateway{cfg: cfg, log: log, bot: b}, nil
}

func (g *Gateway) push(up kit.Update) {
	select {
	case g.out <- up:
	default:
		atomic.AddUint64(&g.droppedUpdates, 1)
	}
}

func messageUpdate(m *tele.Message) kit.Update {
	msg := &kit.Message{
		ID:     m.ID,
		ChatID: m.Chat.ID,
		Text:   m.Text,
	}
	if m.Sender != nil {
		msg.FromID = m.Sender.ID
		msg.FromUsername = m.Sender.Username
		msg.FromFullName = strings.TrimSpace(m.Sender.FirstName + " " + m.Sender.LastName)
	}
	switch {
	case m.Document != nil:
		msg.Attachment = &kit.Attachment{FileID: m.Document.FileID, FileName: m.Document.FileName}
	case m.Photo != nil:
		msg.Attachment = &kit.Attachment{FileID: m.Photo.FileID, FileName: "photo.jpg"}
	}
	return kit.Update{Kind: kit.UpdateMessage, Message: msg}
}

func (g *Gateway) Start(ctx context.Context, out chan<- kit.Update) error {
	g.runMu.Lock()
	if g.running {
		g.runMu.Unlock()
		return nil
	}
	g.running = true
	g.out = out
	rctx, cancel := context.WithCancel(ctx)
	g.runCancel = cancel
	g.runWG.Add(2)
	g.runMu.Unlock()

	// Periodic summary for dropped updates.
	go func() {
		defer g.runWG.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-rctx.Done():
				if n := atomic.SwapUint64(&g.droppedUpdates, 0); n > 0 {
					g.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", cap(out)))
				}
				return
			case <-ticker.C:
				if n := atomic.SwapUint64(&g.droppedUpdates, 0); n > 0 {
					g.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", cap(out)))
				}
			}
		}
	}()

	onMessage := func(c tele.Context) error {
		if m := c.Message(); m != nil {
			g.push(messageUpdate(m))
		}
		return nil
	}
	g.bot.Handle(tele.OnText, onMessage)
	g.bot.Handle(tele.OnPhoto, onMessage)
	g.bot.Handle(tele.OnDocument, onMessage)

	g.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		m := c.Message()
		if cb == nil || m == nil {
			return nil
		}
		g.push(kit.Update{
			Kind: kit.UpdateCallback,
			Callback: &kit.Callback{
				ID:        cb.ID,
				ChatID:    m.Chat.ID,
				FromID:    cb.Sender.ID,
				MessageID: m.ID,
				Data:      strings.TrimPrefix(cb.Data, "\f"),
			},
		})
		return nil
	})

	go func() {
		defer g.runWG.Done()
		go func() {
			<-rctx.Done()
			g.bot.Stop()
		}()
		g.log.Info("polling started")
		g.bot.Start() // blocks until Stop() called
	}()

	return nil
}

func (g *Gateway) Stop(ctx context.Context) error {
	g.runMu.Lock()
	cancel := g.runCancel
	g.runCancel = nil
	wasRunning := g.running
	g.running = false
	g.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		g.runWG.Wait()
		close(done)
	}()

	// Grace window: keep shutdown snappy even if getUpdates long-poll is still waiting.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
		g.log.Info("polling stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		g.log.Warn("telegram stop grace elapsed; continuing shutdown")
		return nil
	}
}

func sendOptions(opt *kit.SendOptions) *tele.SendOptions {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	return &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
		ReplyMarkup:           toMarkup(opt.ReplyMarkup),
	}
}

func toMarkup(m *kit.Markup) *tele.ReplyMarkup {
	if m == nil || len(m.Rows) == 0 {
		return nil
	}
	rm := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(m.Rows))
	for _, r := range m.Rows {
		btns := make([]tele.Btn, 0, len(r))
		for _, b := range r {
			btns = append(btns, tele.Btn{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, rm.Row(btns...))
	}
	rm.Inline(rows...)
	return rm
}

func (g *Gateway) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	msg, err := g.bot.Send(&tele.Chat{ID: to.ChatID}, text, sendOptions(opt))
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: msg.ID}, nil
}

func (g *Gateway) SendPhoto(ctx context.Context, to kit.ChatTarget, photo kit.Photo, opt *kit.SendOptions) (kit.MessageRef, error) {
	// Fresh reader per send: the payload slice is shared across recipients.
	p := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(photo.Data)),
		Caption: photo.Caption,
	}
	msg, err := g.bot.Send(&tele.Chat{ID: to.ChatID}, p, sendOptions(opt))
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: msg.ID}, nil
}

func (g *Gateway) SendDocument(ctx context.Context, to kit.ChatTarget, doc kit.Document, opt *kit.SendOptions) (kit.MessageRef, error) {
	d := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(doc.Data)),
		FileName: doc.FileName,
		Caption:  doc.Caption,
	}
	msg, err := g.bot.Send(&tele.Chat{ID: to.ChatID}, d, sendOptions(opt))
	if err != nil {
		return kit.MessageRef{}, err
	}
	return kit.MessageRef{ChatID: to.ChatID, MessageID: msg.ID}, nil
}

func (g *Gateway) EditReplyMarkup(ctx context.Context, ref kit.MessageRef, markup *kit.Markup) error {
	m := &tele.Message{ID: ref.MessageID, Chat: &tele.Chat{ID: ref.ChatID}}
	_, err := g.bot.EditReplyMarkup(m, toMarkup(markup))
	return err
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	return g.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
}

func (g *Gateway) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	rc, err := g.bot.File(&tele.File{FileID: fileID})
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
