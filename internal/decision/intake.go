package decision

import (
	"context"

	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

const (
	confirmYes = "Ваш выбор принят: Купить ✅. Посетите аукцион внутри игры"
	confirmNo  = "Ваш выбор принят: Не покупать ❌"
)

// Intake records button-press votes from inbound callbacks.
type Intake struct {
	ledger *Ledger
	gw     kit.Gateway
	log    logx.Logger
}

func NewIntake(ledger *Ledger, gw kit.Gateway, log logx.Logger) *Intake {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Intake{ledger: ledger, gw: gw, log: log}
}

// HandleCallback processes one inbound callback. Payloads that are not a
// well-formed prompt press are dropped without a trace: they may come from
// stale keyboards or other bots sharing the chat, and must never surface
// as errors.
//
// On a recorded vote the keyboard removal and the confirmation reply are
// best-effort; the appended vote is the only effect that matters.
func (h *Intake) HandleCallback(ctx context.Context, cb *kit.Callback) {
	action, decisionID, ok := ParseCallback(cb.Data)
	if !ok {
		h.log.Debug("ignoring foreign callback", logx.String("data", cb.Data))
		return
	}

	// Ack first so the client spinner stops even if the rest fails.
	if err := h.gw.AnswerCallback(ctx, cb.ID, ""); err != nil {
		h.log.Debug("callback ack failed", logx.Err(err))
	}

	appended := h.ledger.AppendVote(decisionID, cb.FromID, action)
	h.log.Info("vote received",
		logx.String("decision_id", decisionID),
		logx.Int64("voter", cb.FromID),
		logx.String("action", string(action)),
		logx.Bool("recorded", appended),
	)
	if !appended {
		return
	}

	ref := kit.MessageRef{ChatID: cb.ChatID, MessageID: cb.MessageID}
	if err := h.gw.EditReplyMarkup(ctx, ref, nil); err != nil {
		h.log.Debug("keyboard removal failed", logx.Err(err))
	}

	text := confirmNo
	if action == ActionYes {
		text = confirmYes
	}
	if _, err := h.gw.SendText(ctx, kit.ChatTarget{ChatID: cb.ChatID}, text, nil); err != nil {
		h.log.Debug("vote confirmation failed", logx.Err(err))
	}
}
