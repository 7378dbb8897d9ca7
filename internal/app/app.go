// Package app wires the process together: config, logging, the two bot
// gateways, the decision pipeline, the HTTP API, and maintenance.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lotbot/internal/config"
	"lotbot/internal/decision"
	"lotbot/internal/httpapi"
	"lotbot/internal/order"
	kit "lotbot/internal/transport"
	"lotbot/internal/transport/telegram"
	"lotbot/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	log    logx.Logger

	orderGW   kit.Gateway
	auctionGW kit.Gateway // nil without an auction token

	flow   *order.Flow
	ledger *decision.Ledger
	intake *decision.Intake

	http  *httpapi.Server
	store order.Store
	cron  *cron.Cron

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgMgr := config.NewManager(cfgPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, err
	}

	log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	store, err := order.OpenStore(order.StoreConfig{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return nil, err
	}

	orderGW, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log.With(logx.String("comp", "telegram.order")))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgMgr:  cfgMgr,
		log:     log,
		orderGW: orderGW,
		ledger:  decision.NewLedger(),
		store:   store,
	}

	a.flow = order.NewFlow(order.FlowConfig{
		AdminChatID: cfg.Telegram.AdminChatID,
		AccountInfo: cfg.Telegram.AccountInfo,
	}, orderGW, store, log.With(logx.String("comp", "order")))

	// The auction bot is optional; without it /notify rejects requests and
	// only the order wizard runs.
	var dispatcher *decision.Dispatcher
	if cfg.Telegram.AuctionToken != "" {
		auctionGW, err := telegram.New(telegram.Config{
			Token:       cfg.Telegram.AuctionToken,
			PollTimeout: pollTimeout,
		}, log.With(logx.String("comp", "telegram.auction")))
		if err != nil {
			return nil, err
		}
		a.auctionGW = auctionGW
		a.intake = decision.NewIntake(a.ledger, auctionGW, log.With(logx.String("comp", "intake")))

		sendTimeout, err := config.ParseDurationOrDefault("dispatch.send_timeout", cfg.Dispatch.SendTimeout, 12*time.Second)
		if err != nil {
			return nil, err
		}
		dispatcher = decision.NewDispatcher(decision.DispatcherConfig{
			Workers:     cfg.Dispatch.Workers,
			RatePerSec:  cfg.Dispatch.RatePerSec,
			SendTimeout: sendTimeout,
		}, auctionGW, a.ledger, log.With(logx.String("comp", "dispatch")))
	} else {
		log.Warn("auction token not set; /notify will reject requests")
	}

	handlers := httpapi.NewHandlers(dispatcher, decision.NewQuery(a.ledger), log.With(logx.String("comp", "http")))
	a.http = httpapi.NewServer(httpapi.Config{Addr: cfg.HTTP.Addr}, handlers, log.With(logx.String("comp", "http")))

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	cfg := a.cfgMgr.Get()
	queue := cfg.Dispatch.UpdateQueue
	if queue <= 0 {
		queue = 128
	}

	orderCh := make(chan kit.Update, queue)
	if err := a.orderGW.Start(rctx, orderCh); err != nil {
		return err
	}
	or := &orderRouter{flow: a.flow}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		runLoop(rctx, orderCh, or.route)
	}()

	if a.auctionGW != nil {
		auctionCh := make(chan kit.Update, queue)
		if err := a.auctionGW.Start(rctx, auctionCh); err != nil {
			return err
		}
		ar := &auctionRouter{gw: a.auctionGW, intake: a.intake, log: a.log.With(logx.String("comp", "auction"))}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			runLoop(rctx, auctionCh, ar.route)
		}()
	}

	if err := a.http.Start(rctx); err != nil {
		return err
	}

	c, err := startMaintenance(a.cfgMgr, a.ledger, a.log.With(logx.String("comp", "maintenance")))
	if err != nil {
		return err
	}
	a.cron = c

	// Tokens and the listen address are bound at startup; hot reload covers
	// maintenance settings, which the cron job reads live.
	a.cfgMgr.OnChange(func(*config.Config) {
		a.log.Info("config reloaded; token and address changes take effect on restart")
	})
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgMgr.Watch(rctx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.log.Info("started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.http != nil {
		_ = a.http.Stop(ctx)
	}
	if a.auctionGW != nil {
		_ = a.auctionGW.Stop(ctx)
	}
	_ = a.orderGW.Stop(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
	}

	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	_ = a.log.Close()
	return nil
}
