package decision

import "testing"

func TestParseCallback(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		data   string
		action Action
		id     string
		ok     bool
	}{
		{name: "yes", data: "auction:yes:L1", action: ActionYes, id: "L1", ok: true},
		{name: "no", data: "auction:no:L1", action: ActionNo, id: "L1", ok: true},
		{name: "id with colons", data: "auction:yes:lot:2026:09", action: ActionYes, id: "lot:2026:09", ok: true},
		{name: "unknown action", data: "auction:maybe:L1"},
		{name: "wrong namespace", data: "order:yes:L1"},
		{name: "empty id", data: "auction:yes:"},
		{name: "too few parts", data: "auction:yes"},
		{name: "empty payload", data: ""},
		{name: "foreign button", data: "неделя"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			action, id, ok := ParseCallback(tt.data)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if action != tt.action || id != tt.id {
				t.Fatalf("parsed (%s, %q), want (%s, %q)", action, id, tt.action, tt.id)
			}
		})
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	t.Parallel()
	data := EncodeCallback(ActionNo, "a:b:c")
	action, id, ok := ParseCallback(data)
	if !ok || action != ActionNo || id != "a:b:c" {
		t.Fatalf("round trip gave (%s, %q, %v)", action, id, ok)
	}
}

func TestPromptMarkup(t *testing.T) {
	t.Parallel()
	m := PromptMarkup("L1")
	if len(m.Rows) != 1 || len(m.Rows[0]) != 2 {
		t.Fatalf("markup shape = %+v, want one row of two buttons", m.Rows)
	}
	if m.Rows[0][0].Data != "auction:yes:L1" || m.Rows[0][1].Data != "auction:no:L1" {
		t.Fatalf("button payloads = %q / %q", m.Rows[0][0].Data, m.Rows[0][1].Data)
	}
}
