package order

import (
	"context"
	"errors"
	"strings"

	"lotbot/pkg/logx"
)

var ErrDisabled = errors.New("order storage disabled")

// Store is the persistence API for completed orders.
type Store interface {
	SaveOrder(ctx context.Context, o Order) error
	ListOrders(ctx context.Context, limit int) ([]Order, error)
	Close() error
}

// StoreConfig configures order persistence.
//
// Driver "sqlite" keeps orders in a database file. Empty or "none"
// disables persistence (the wizard still runs, order forwarding to the
// admin chat is the only record).
type StoreConfig struct {
	Driver      string
	Path        string
	BusyTimeout string // Go duration string
}

// OpenStore initializes the configured store. It returns (nil, nil) when
// storage is disabled.
func OpenStore(cfg StoreConfig, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown order storage driver: " + driver)
	}
}
