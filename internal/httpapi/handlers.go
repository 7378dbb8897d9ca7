package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lotbot/internal/decision"
	kit "lotbot/internal/transport"
	"lotbot/pkg/logx"
)

// Handlers exposes the relay's two boundary operations plus liveness.
//
// Dispatcher may be nil when the auction bot is not configured; notify then
// fails the same way the process always has (a client error, no side
// effects).
type Handlers struct {
	dispatcher *decision.Dispatcher
	query      decision.Query
	log        logx.Logger
}

func NewHandlers(dispatcher *decision.Dispatcher, query decision.Query, log logx.Logger) *Handlers {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handlers{dispatcher: dispatcher, query: query, log: log}
}

func (h *Handlers) register(r *gin.Engine) {
	r.GET("/", h.health)
	r.GET("/health", h.health)
	r.POST("/notify", h.notify)
	r.GET("/decision/:id", h.decision)
}

func (h *Handlers) health(c *gin.Context) {
	c.String(http.StatusOK, "Bot is alive!")
}

type notifyResultJSON struct {
	ChatID string `json:"chat_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

func clientError(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// notify accepts a multipart lot notification and fans it out.
//
// Fields: photo (file), caption, decision_id, chat_ids (comma-separated).
func (h *Handlers) notify(c *gin.Context) {
	if h.dispatcher == nil {
		clientError(c, "TG_BOT_TOKEN_AUCTION is empty")
		return
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		clientError(c, "photo/decision_id/chat_ids are required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		clientError(c, "photo is not readable")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil || len(data) == 0 {
		clientError(c, "photo is not readable")
		return
	}

	name := fh.Filename
	if name == "" {
		name = "lot.png"
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}

	req := decision.NotifyRequest{
		DecisionID: c.PostForm("decision_id"),
		Photo: kit.Photo{
			Data:     data,
			FileName: name,
			MIME:     mime,
			Caption:  c.PostForm("caption"),
		},
		Recipients: decision.SplitRecipients(c.PostForm("chat_ids")),
	}

	results, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		clientError(c, err.Error())
		return
	}

	out := make([]notifyResultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, notifyResultJSON{ChatID: r.RecipientID, OK: r.Delivered, Error: r.Error})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "results": out})
}

type answerJSON struct {
	UserID int64  `json:"user_id"`
	Action string `json:"action"`
	TS     int64  `json:"ts"`
}

// decision reports the consolidated status. Unknown ids are pending, not
// errors.
func (h *Handlers) decision(c *gin.Context) {
	res := h.query.Decision(c.Param("id"))

	answers := make([]answerJSON, 0, len(res.Votes))
	for _, v := range res.Votes {
		answers = append(answers, answerJSON{UserID: v.VoterID, Action: string(v.Action), TS: v.RespondedAt.Unix()})
	}

	body := gin.H{"status": string(res.Status), "answers": answers}
	if res.Known {
		body["created"] = res.CreatedAt.Unix()
	}
	c.JSON(http.StatusOK, body)
}
