package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv layers the process environment over cfg. The env names match
// the deployment contract this bot has always had, so existing units keep
// working without a config file.
func applyEnv(cfg *Config) error {
	if v := firstEnv("BOT_TOKEN", "TG_BOT_TOKEN_MAIN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("TG_BOT_TOKEN_AUCTION")); v != "" {
		cfg.Telegram.AuctionToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_ID: not a chat id: %q", v)
		}
		cfg.Telegram.AdminChatID = id
	}
	if v := strings.TrimSpace(os.Getenv("ACCOUNT_INFO")); v != "" {
		cfg.Telegram.AccountInfo = v
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}
