package app

import (
	"context"
	"fmt"
	"strings"

	"lotbot/internal/decision"
	"lotbot/internal/order"
	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

// orderRouter feeds the order bot's updates into the wizard.
type orderRouter struct {
	flow *order.Flow
}

func (r *orderRouter) route(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message != nil {
			r.flow.HandleMessage(ctx, up.Message)
		}
	case kit.UpdateCallback:
		if up.Callback != nil {
			r.flow.HandleCallback(ctx, up.Callback)
		}
	}
}

// auctionRouter feeds the auction bot's updates into vote intake and
// answers its two commands.
type auctionRouter struct {
	gw     kit.Gateway
	intake *decision.Intake
	log    logx.Logger
}

func (r *auctionRouter) route(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		if up.Message != nil {
			r.command(ctx, up.Message)
		}
	case kit.UpdateCallback:
		if up.Callback != nil {
			r.intake.HandleCallback(ctx, up.Callback)
		}
	}
}

func (r *auctionRouter) command(ctx context.Context, m *kit.Message) {
	to := kit.ChatTarget{ChatID: m.ChatID}
	switch strings.TrimSpace(m.Text) {
	case "/start":
		r.send(ctx, to, "Аукционный бот запущен.\n"+
			"Сюда будут приходить уведомления о новых лотах, подходящих под ваши критерии.\n"+
			"Введите /id чтобы получить модификационный номер.", nil)
	case "/id":
		r.send(ctx, to, fmt.Sprintf("Ваш идентификационный номер: <code>%d</code>\n"+
			"Используйте его, чтобы получать уведомления", m.ChatID),
			&kit.SendOptions{ParseMode: "HTML"})
	}
}

func (r *auctionRouter) send(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) {
	if _, err := r.gw.SendText(ctx, to, text, opt); err != nil {
		r.log.Debug("command reply failed", logx.Err(err))
	}
}

// runLoop drains an update channel into a route function until ctx ends.
func runLoop(ctx context.Context, ch <-chan kit.Update, route func(context.Context, kit.Update)) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-ch:
			if !ok {
				return
			}
			route(ctx, up)
		}
	}
}
