// Package watcher follows the factory's DaoDeployed events and records
// each one in the local ledger.
package watcher

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"

	"daokit-go/internal/dao"
	"daokit-go/internal/store"
)

const (
	initialBackoff = time.Second
	maxBackoff     = time.Minute
)

type Watcher struct {
	factory *dao.Factory
	chainID int64
	network string
	db      *store.DB
	log     *zap.Logger
}

func New(factory *dao.Factory, chainID int64, network string, db *store.DB, log *zap.Logger) *Watcher {
	return &Watcher{
		factory: factory,
		chainID: chainID,
		network: network,
		db:      db,
		log:     log.Named("watcher"),
	}
}

// Run subscribes to DaoDeployed logs and keeps resubscribing with
// backoff until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warn("subscription lost, retrying", zap.Error(err), zap.Duration("backoff", backoff))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (w *Watcher) watch(ctx context.Context) error {
	sink := make(chan *dao.DaoDeployedEvent)
	sub, err := w.factory.WatchDeployments(&bind.WatchOpts{Context: ctx}, sink)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	w.log.Info("watching factory", zap.String("factory", w.factory.Address().Hex()))
	for {
		select {
		case ev := <-sink:
			w.record(ev)
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) record(ev *dao.DaoDeployedEvent) {
	// A genesis launched through this process is already recorded by
	// the launcher; don't write a second row for the same transaction.
	exists, err := w.db.HasTx(ev.TxHash.Hex())
	if err != nil {
		w.log.Error("check deployment", zap.Error(err))
		return
	}
	if exists {
		w.log.Debug("deployment already recorded", zap.String("tx", ev.TxHash.Hex()))
		return
	}

	w.log.Info("dao deployed",
		zap.String("deployer", ev.Deployer.Hex()),
		zap.String("timelock", ev.Modules.Timelock.Hex()),
		zap.String("token", ev.Modules.Token.Hex()),
		zap.String("governor", ev.Modules.Governor.Hex()),
		zap.String("treasury", ev.Modules.Treasury.Hex()),
		zap.String("kernel", ev.Modules.Kernel.Hex()),
		zap.Uint64("block", ev.Block))

	d := &store.Deployment{
		ChainID:  w.chainID,
		Network:  w.network,
		TxHash:   ev.TxHash.Hex(),
		Deployer: ev.Deployer.Hex(),
		Timelock: ev.Modules.Timelock.Hex(),
		Token:    ev.Modules.Token.Hex(),
		Governor: ev.Modules.Governor.Hex(),
		Treasury: ev.Modules.Treasury.Hex(),
		Kernel:   ev.Modules.Kernel.Hex(),
	}
	if err := w.db.Record(d); err != nil {
		w.log.Error("record deployment", zap.Error(err))
	}
}
