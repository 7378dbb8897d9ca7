package order

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"lotbot/pkg/logx"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, err := OpenStore(StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "orders.db"),
	}, logx.Nop())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	in := Order{
		UserID:      42,
		Username:    "player",
		Name:        "PlayerOne",
		RegNumbers:  []string{"111", "222"},
		LicenseTerm: "месяц",
		Paid:        true,
		ReceiptName: "receipt.pdf",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := st.SaveOrder(ctx, in); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	out, err := st.ListOrders(ctx, 10)
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("orders = %d, want 1", len(out))
	}
	got := out[0]
	if got.UserID != in.UserID || got.Username != in.Username || got.Name != in.Name {
		t.Fatalf("got %+v", got)
	}
	if !reflect.DeepEqual(got.RegNumbers, in.RegNumbers) {
		t.Fatalf("regs = %v, want %v", got.RegNumbers, in.RegNumbers)
	}
	if !got.Paid || got.ReceiptName != in.ReceiptName || got.LicenseTerm != in.LicenseTerm {
		t.Fatalf("got %+v", got)
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := OpenStore(StoreConfig{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("OpenStore(%q) = (%v, %v), want disabled", driver, st, err)
		}
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := OpenStore(StoreConfig{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver should error")
	}
}
