// Package launcher ties the genesis paths together: it runs a
// deployment (factory or step-by-step), records it in the ledger and
// re-verifies recorded deployments on demand.
package launcher

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"daokit-go/internal/config"
	"daokit-go/internal/dao"
	"daokit-go/internal/ethereum"
	"daokit-go/internal/genesis"
	"daokit-go/internal/store"
	"daokit-go/internal/verify"
)

type Launcher struct {
	client *ethereum.Client
	cfg    *config.Config
	db     *store.DB
	log    *zap.Logger
}

func New(client *ethereum.Client, cfg *config.Config, db *store.DB, log *zap.Logger) *Launcher {
	return &Launcher{client: client, cfg: cfg, db: db, log: log.Named("launcher")}
}

// Launch runs one genesis. The returned record is already persisted.
func (l *Launcher) Launch(ctx context.Context, minDelay int64, members []common.Address) (*store.Deployment, error) {
	plan, err := genesis.NewPlan(big.NewInt(minDelay), l.client.From(), members)
	if err != nil {
		return nil, err
	}

	var (
		modules dao.ModuleSet
		txHash  string
	)
	if factoryAddr, ok := l.cfg.Factory(); ok {
		modules, txHash, err = l.viaFactory(ctx, factoryAddr, plan)
	} else {
		modules, err = l.viaSteps(ctx, plan)
	}
	if err != nil {
		return nil, err
	}

	d := &store.Deployment{
		ChainID:  l.client.ChainID().Int64(),
		Network:  l.cfg.Network,
		TxHash:   txHash,
		Deployer: plan.Deployer.Hex(),
		MinDelay: minDelay,
		Timelock: modules.Timelock.Hex(),
		Token:    modules.Token.Hex(),
		Governor: modules.Governor.Hex(),
		Treasury: modules.Treasury.Hex(),
		Kernel:   modules.Kernel.Hex(),
		Members:  hexMembers(plan.Members),
	}
	if err := l.db.Record(d); err != nil {
		return nil, fmt.Errorf("record deployment: %w", err)
	}
	l.log.Info("genesis complete",
		zap.String("id", d.ID),
		zap.String("modules", modules.String()),
		zap.Int("members", len(plan.Members)))
	return d, nil
}

// viaFactory submits one transaction; the chain guarantees the whole
// genesis commits or reverts together.
func (l *Launcher) viaFactory(ctx context.Context, addr common.Address, plan genesis.Plan) (dao.ModuleSet, string, error) {
	factory := dao.NewFactory(addr, l.client.Backend())
	opts, err := l.client.TransactOpts(ctx)
	if err != nil {
		return dao.ModuleSet{}, "", err
	}
	// The factory re-applies the caller-inclusion rule on-chain, so it
	// gets the supplied list verbatim, duplicates included.
	tx, err := factory.DeployDao(opts, plan.MinDelay, plan.Supplied)
	if err != nil {
		return dao.ModuleSet{}, "", err
	}
	l.log.Info("genesis transaction submitted", zap.String("tx", tx.Hash().Hex()))
	receipt, err := l.client.WaitMined(ctx, tx)
	if err != nil {
		return dao.ModuleSet{}, "", err
	}
	ev, err := factory.Deployed(receipt)
	if err != nil {
		return dao.ModuleSet{}, "", err
	}
	return ev.Modules, ev.TxHash.Hex(), nil
}

// viaSteps runs the sequence one transaction at a time from compiled
// artifacts. No atomicity: a failure surfaces as a genesis.StepError
// listing the steps already mined.
func (l *Launcher) viaSteps(ctx context.Context, plan genesis.Plan) (dao.ModuleSet, error) {
	artifacts := dao.NewArtifactSet(l.cfg.ArtifactsDir)
	deployer := genesis.NewChainDeployer(l.client, artifacts, l.cfg.GasLimit, l.log)
	res, err := genesis.Run(ctx, deployer, plan)
	if err != nil {
		return dao.ModuleSet{}, err
	}
	return res.Modules, nil
}

func hexMembers(members []common.Address) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Hex()
	}
	return out
}

// ChainVerifier re-checks a recorded deployment's wiring on chain.
type ChainVerifier struct {
	reader verify.ContractReader
}

func NewChainVerifier(reader verify.ContractReader) *ChainVerifier {
	return &ChainVerifier{reader: reader}
}

func (v *ChainVerifier) Verify(ctx context.Context, d *store.Deployment) (*verify.Report, error) {
	modules := dao.ModuleSet{
		Timelock: common.HexToAddress(d.Timelock),
		Token:    common.HexToAddress(d.Token),
		Governor: common.HexToAddress(d.Governor),
		Treasury: common.HexToAddress(d.Treasury),
		Kernel:   common.HexToAddress(d.Kernel),
	}
	members := make([]common.Address, len(d.Members))
	for i, m := range d.Members {
		members[i] = common.HexToAddress(m)
	}
	// Rows recorded from watch mode carry no delay; skip that check.
	var minDelay *big.Int
	if d.MinDelay > 0 {
		minDelay = big.NewInt(d.MinDelay)
	}
	return verify.Wiring(ctx, v.reader, modules, common.HexToAddress(d.Deployer), members, minDelay)
}
