package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

const (
	termWeek     = "неделя"
	termMonth    = "месяц"
	termHalfYear = "полгода"

	payYes = "yes"
	payNo  = "no"
)

// session is one user's wizard progress. Empty fields mark the next step.
type session struct {
	name    string
	regs    []string
	term    string
	payment string // "yes" | "no" | ""
}

// Flow drives the order wizard over a Gateway. It keeps per-user sessions
// in memory; only completed orders are persisted.
type Flow struct {
	gw          kit.Gateway
	store       Store
	adminChatID int64
	accountInfo string
	log         logx.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

type FlowConfig struct {
	AdminChatID int64
	AccountInfo string
}

func NewFlow(cfg FlowConfig, gw kit.Gateway, store Store, log logx.Logger) *Flow {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Flow{
		gw:          gw,
		store:       store,
		adminChatID: cfg.AdminChatID,
		accountInfo: cfg.AccountInfo,
		log:         log,
		sessions:    map[int64]*session{},
	}
}

func (f *Flow) session(userID int64) (*session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[userID]
	return s, ok
}

func (f *Flow) reset(userID int64) *session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &session{}
	f.sessions[userID] = s
	return s
}

func termMarkup() *kit.Markup {
	return &kit.Markup{Rows: [][]kit.Button{
		{{Text: "Неделя", Data: termWeek}},
		{{Text: "Месяц", Data: termMonth}},
		{{Text: "Полгода", Data: termHalfYear}},
	}}
}

func payMarkup() *kit.Markup {
	return &kit.Markup{Rows: [][]kit.Button{
		{{Text: "Да", Data: payYes}},
		{{Text: "Нет", Data: payNo}},
	}}
}

// HandleMessage advances the wizard on an inbound text or attachment.
func (f *Flow) HandleMessage(ctx context.Context, m *kit.Message) {
	to := kit.ChatTarget{ChatID: m.ChatID}

	if strings.TrimSpace(m.Text) == "/start" {
		f.reset(m.FromID)
		f.send(ctx, to, "Привет! 👋 Добро пожаловать\n"+
			"Я помогу вам оформить заказ бота и отправить квитанцию.\n"+
			"Пожалуйста, следуйте указаниям.\n\n"+
			"Сначала укажите ваш игровой ник.", nil)
		return
	}

	s, ok := f.session(m.FromID)
	if !ok {
		f.send(ctx, to, "Пожалуйста, начните с команды /start.", nil)
		return
	}

	if m.Attachment != nil {
		f.handleAttachment(ctx, s, m)
		return
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	switch {
	case s.name == "":
		s.name = text
		f.send(ctx, to, fmt.Sprintf(
			"Спасибо, %s! Теперь отправьте один или несколько регистрационных номеров (IGG). "+
				"Если номеров несколько, используйте ',' или пробел для разделения.", s.name), nil)
	case len(s.regs) == 0:
		s.regs = splitRegNumbers(text)
		f.send(ctx, to, "Выберите срок лицензии:", termMarkup())
	default:
		f.send(ctx, to, "Вы уже ввели все необходимые данные. Прикрепите квитанцию, если оплата была произведена.", nil)
	}
}

// HandleCallback advances the wizard on a term or payment button press.
func (f *Flow) HandleCallback(ctx context.Context, cb *kit.Callback) {
	if err := f.gw.AnswerCallback(ctx, cb.ID, ""); err != nil {
		f.log.Debug("callback ack failed", logx.Err(err))
	}
	to := kit.ChatTarget{ChatID: cb.ChatID}

	s, ok := f.session(cb.FromID)
	if !ok {
		f.send(ctx, to, "Ошибка: данные пользователя не найдены.", nil)
		return
	}

	switch cb.Data {
	case termWeek, termMonth, termHalfYear:
		s.term = cb.Data
		f.send(ctx, to, "Вы уже оплатили лицензию?", payMarkup())
	case payYes:
		s.payment = payYes
		f.send(ctx, to, "Пожалуйста, прикрепите квитанцию об оплате.", nil)
	case payNo:
		s.payment = payNo
		f.forwardUnpaid(ctx, s, cb.FromID, "", "", to)
	}
}

func (f *Flow) handleAttachment(ctx context.Context, s *session, m *kit.Message) {
	to := kit.ChatTarget{ChatID: m.ChatID}
	switch {
	case s.name == "":
		f.send(ctx, to, "Сначала укажите ваш Ник", nil)
		return
	case len(s.regs) == 0:
		f.send(ctx, to, "Сначала укажите ваши IGG", nil)
		return
	case s.term == "":
		f.send(ctx, to, "Сначала выберите срок лицензии:", termMarkup())
		return
	}

	if s.payment != payYes {
		f.forwardUnpaid(ctx, s, m.FromID, m.FromUsername, m.FromFullName, to)
		return
	}

	data, err := f.gw.FetchFile(ctx, m.Attachment.FileID)
	if err != nil {
		f.log.Warn("receipt fetch failed", logx.Err(err))
		f.send(ctx, to, fmt.Sprintf("Произошла ошибка при обработке файла: %v", err), nil)
		return
	}
	name := m.Attachment.FileName
	if name == "" {
		name = "document"
	}

	caption := f.summary(s, userLabel(m.FromID, m.FromUsername, m.FromFullName), true)
	if _, err := f.gw.SendDocument(ctx, kit.ChatTarget{ChatID: f.adminChatID}, kit.Document{
		Data:     data,
		FileName: name,
		Caption:  caption,
	}, nil); err != nil {
		f.log.Warn("receipt forward failed", logx.Err(err))
		f.send(ctx, to, fmt.Sprintf("Произошла ошибка при обработке файла: %v", err), nil)
		return
	}

	f.persist(ctx, s, m.FromID, m.FromUsername, m.FromFullName, true, name)
	f.reply(ctx, to, "Спасибо. Квитанция успешно отправлена администратору! "+
		"Если есть вопросы — наш [форум](%s)")
}

// forwardUnpaid sends the summary without a receipt to the admin chat.
func (f *Flow) forwardUnpaid(ctx context.Context, s *session, userID int64, username, fullName string, to kit.ChatTarget) {
	caption := f.summary(s, userLabel(userID, username, fullName), false)
	if _, err := f.gw.SendText(ctx, kit.ChatTarget{ChatID: f.adminChatID}, caption,
		&kit.SendOptions{ParseMode: "Markdown"}); err != nil {
		f.log.Warn("order forward failed", logx.Err(err))
	}

	f.persist(ctx, s, userID, username, fullName, false, "")
	f.reply(ctx, to, "Спасибо. Ваш запрос на оформление лицензии был отправлен администрации. "+
		"Если есть вопросы — наш [форум](%s)")
}

func (f *Flow) summary(s *session, label string, paid bool) string {
	payment := "Оплата не была произведена."
	if paid {
		payment = "Оплата была произведена."
	}
	return fmt.Sprintf("Новый запрос на приобретение бота от пользователя %s:\n"+
		"Имя: %s\n"+
		"Регистрационные номера (IGG): %s\n"+
		"Срок лицензии: %s\n%s",
		label, s.name, strings.Join(s.regs, ", "), s.term, payment)
}

func (f *Flow) persist(ctx context.Context, s *session, userID int64, username, fullName string, paid bool, receipt string) {
	if f.store == nil {
		return
	}
	err := f.store.SaveOrder(ctx, Order{
		UserID:      userID,
		Username:    username,
		FullName:    fullName,
		Name:        s.name,
		RegNumbers:  append([]string(nil), s.regs...),
		LicenseTerm: s.term,
		Paid:        paid,
		ReceiptName: receipt,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		f.log.Warn("order persist failed", logx.Err(err))
	}
}

// reply sends the user-facing confirmation, preferring Markdown when the
// forum link is configured and degrading to plain text otherwise.
func (f *Flow) reply(ctx context.Context, to kit.ChatTarget, template string) {
	if f.accountInfo != "" {
		if _, err := f.gw.SendText(ctx, to, fmt.Sprintf(template, f.accountInfo),
			&kit.SendOptions{ParseMode: "Markdown"}); err != nil {
			f.log.Debug("order reply failed", logx.Err(err))
		}
		return
	}
	plain := strings.ReplaceAll(fmt.Sprintf(template, ""), "[форум]()", "форум")
	f.send(ctx, to, plain, nil)
}

func (f *Flow) send(ctx context.Context, to kit.ChatTarget, text string, markup *kit.Markup) {
	opt := &kit.SendOptions{}
	if markup != nil && len(markup.Rows) > 0 {
		opt.ReplyMarkup = markup
	}
	if _, err := f.gw.SendText(ctx, to, text, opt); err != nil {
		f.log.Debug("wizard send failed", logx.Err(err))
	}
}

// userLabel renders a mention: @username when set, a tg://user deep link
// otherwise.
func userLabel(userID int64, username, fullName string) string {
	if username != "" {
		return "@" + username
	}
	if fullName == "" {
		fullName = fmt.Sprintf("id%d", userID)
	}
	return fmt.Sprintf("[%s](tg://user?id=%d)", fullName, userID)
}
