package decision

import (
	"strings"

	kit "lotbot/internal/transport"
)

// Callback data format: "auction:<action>:<decision_id>".
//
// The id is the tail of the payload and may itself contain ':', so parsing
// splits on at most two delimiters and never re-splits the tail.
const callbackNamespace = "auction"

// EncodeCallback formats the callback payload for one prompt button.
func EncodeCallback(action Action, decisionID string) string {
	return callbackNamespace + ":" + string(action) + ":" + decisionID
}

// ParseCallback decodes a callback payload. ok is false for anything that
// is not a well-formed prompt press: wrong namespace, unknown action,
// missing id, too few parts. Such payloads come from stale or foreign
// buttons and are simply not ours to handle.
func ParseCallback(data string) (action Action, decisionID string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackNamespace || parts[2] == "" {
		return "", "", false
	}
	switch Action(parts[1]) {
	case ActionYes, ActionNo:
		return Action(parts[1]), parts[2], true
	}
	return "", "", false
}

// PromptMarkup builds the two-button buy prompt for a decision.
func PromptMarkup(decisionID string) *kit.Markup {
	return &kit.Markup{Rows: [][]kit.Button{{
		{Text: "Купить ✅", Data: EncodeCallback(ActionYes, decisionID)},
		{Text: "Нет ❌", Data: EncodeCallback(ActionNo, decisionID)},
	}}}
}
