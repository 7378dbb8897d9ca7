package decision

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

// Client input errors. The HTTP layer maps these to 400 responses; none of
// them leaves partial side effects behind.
var (
	ErrMissingPhoto      = errors.New("photo is required")
	ErrMissingDecisionID = errors.New("decision_id is required")
	ErrNoRecipients      = errors.New("no recipients")
)

type DispatcherConfig struct {
	Workers     int
	RatePerSec  int
	SendTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 12 * time.Second
	}
	return c
}

// NotifyRequest is one inbound lot notification.
type NotifyRequest struct {
	DecisionID string
	Photo      kit.Photo
	Recipients []string // raw recipient ids; normalized before dispatch
}

// DispatchResult is the per-recipient outcome of one fan-out.
type DispatchResult struct {
	RecipientID string
	Delivered   bool
	Error       string
}

// Dispatcher fans a lot notification out to all recipients. Sends run
// concurrently through a bounded worker set and a shared rate limiter;
// each send has its own timeout, and one recipient's failure never touches
// the others.
type Dispatcher struct {
	cfg     DispatcherConfig
	gw      kit.Gateway
	ledger  *Ledger
	limiter *rate.Limiter
	log     logx.Logger
}

func NewDispatcher(cfg DispatcherConfig, gw kit.Gateway, ledger *Ledger, log logx.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{
		cfg:     cfg,
		gw:      gw,
		ledger:  ledger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:     log,
	}
}

// SplitRecipients splits a comma-separated recipient list, trimming
// whitespace and dropping empties.
func SplitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Dispatch validates req, registers the decision id, and sends the photo
// with the buy prompt to every recipient. Validation failures return
// before any side effect. The result slice is ordered like the normalized
// recipient list and always has one entry per recipient; delivery errors
// are recorded there, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req NotifyRequest) ([]DispatchResult, error) {
	if len(req.Photo.Data) == 0 {
		return nil, ErrMissingPhoto
	}
	if strings.TrimSpace(req.DecisionID) == "" {
		return nil, ErrMissingDecisionID
	}
	recipients := normalize(req.Recipients)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	// Register before dispatch so a query racing the fan-out already sees
	// a pending record.
	d.ledger.GetOrCreate(req.DecisionID)

	markup := PromptMarkup(req.DecisionID)
	results := make([]DispatchResult, len(recipients))

	var wg sync.WaitGroup
	sem := make(chan struct{}, d.cfg.Workers)
	for i, rid := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rid string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = d.sendOne(ctx, rid, req.Photo, markup)
		}(i, rid)
	}
	wg.Wait()

	ok, failed := 0, 0
	for _, r := range results {
		if r.Delivered {
			ok++
		} else {
			failed++
		}
	}
	d.log.Info("lot dispatched",
		logx.String("decision_id", req.DecisionID),
		logx.Int("recipients", len(recipients)),
		logx.Int("ok", ok),
		logx.Int("failed", failed),
	)
	return results, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, recipientID string, photo kit.Photo, markup *kit.Markup) DispatchResult {
	res := DispatchResult{RecipientID: recipientID}

	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		res.Error = "invalid chat id"
		return res
	}
	if err := d.limiter.Wait(ctx); err != nil {
		res.Error = err.Error()
		return res
	}

	sctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	// The provider client has no context plumbing of its own, so bound the
	// wait here; a hung send is abandoned, not joined.
	errCh := make(chan error, 1)
	go func() {
		_, err := d.gw.SendPhoto(sctx, kit.ChatTarget{ChatID: chatID}, photo, &kit.SendOptions{ReplyMarkup: markup})
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			res.Error = err.Error()
			d.log.Warn("lot send failed", logx.String("recipient", recipientID), logx.Err(err))
			return res
		}
		res.Delivered = true
		return res
	case <-sctx.Done():
		res.Error = sctx.Err().Error()
		d.log.Warn("lot send timed out", logx.String("recipient", recipientID))
		return res
	}
}
