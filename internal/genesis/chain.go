package genesis

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"daokit-go/internal/dao"
	"daokit-go/internal/ethereum"
)

// Artifact names the step deployer expects in the build directory.
const (
	artifactTimelock = "DaoTimelock"
	artifactToken    = "MembershipToken"
	artifactTreasury = "DaoTreasury"
	artifactGovernor = "DaoGovernor"
	artifactKernel   = "DaoKernel"
	artifactProxy    = "ERC1967Proxy"
)

// ChainDeployer implements Deployer against a live chain: each module
// is an ERC1967 proxy in front of a freshly deployed implementation,
// initialized in the proxy constructor. Implementations are deployed
// once per run and reused across proxies of the same kind.
type ChainDeployer struct {
	client    *ethereum.Client
	artifacts *dao.ArtifactSet
	tr        *dao.Transactor
	log       *zap.Logger
	gasLimit  uint64

	impls map[string]common.Address
}

func NewChainDeployer(client *ethereum.Client, artifacts *dao.ArtifactSet, gasLimit uint64, log *zap.Logger) *ChainDeployer {
	return &ChainDeployer{
		client:    client,
		artifacts: artifacts,
		tr:        dao.NewTransactor(client.Backend()),
		log:       log.Named("deployer"),
		gasLimit:  gasLimit,
		impls:     make(map[string]common.Address),
	}
}

func (c *ChainDeployer) opts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := c.client.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.GasLimit = c.gasLimit
	return opts, nil
}

func (c *ChainDeployer) wait(ctx context.Context, what string, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := c.client.WaitMined(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s: tx %s reverted", what, tx.Hash().Hex())
	}
	c.log.Debug("transaction mined",
		zap.String("what", what),
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()))
	return receipt, nil
}

// implementation deploys (or reuses) the logic contract for a module.
func (c *ChainDeployer) implementation(ctx context.Context, name string) (common.Address, error) {
	if addr, ok := c.impls[name]; ok {
		return addr, nil
	}
	art, err := c.artifacts.Get(name)
	if err != nil {
		return common.Address{}, err
	}
	opts, err := c.opts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	addr, tx, _, err := bind.DeployContract(opts, art.ABI, art.Bytecode, c.client.Backend())
	if err != nil {
		return common.Address{}, fmt.Errorf("deploy %s implementation: %w", name, err)
	}
	if _, err := c.wait(ctx, name+" implementation", tx); err != nil {
		return common.Address{}, err
	}
	c.impls[name] = addr
	c.log.Info("implementation deployed", zap.String("contract", name), zap.String("address", addr.Hex()))
	return addr, nil
}

// deployProxy deploys an ERC1967 proxy over the named implementation,
// passing the packed initialize call to the proxy constructor.
func (c *ChainDeployer) deployProxy(ctx context.Context, name string, initArgs ...interface{}) (common.Address, error) {
	impl, err := c.implementation(ctx, name)
	if err != nil {
		return common.Address{}, err
	}
	art, err := c.artifacts.Get(name)
	if err != nil {
		return common.Address{}, err
	}
	initData, err := art.ABI.Pack("initialize", initArgs...)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack %s initializer: %w", name, err)
	}
	proxyArt, err := c.artifacts.Get(artifactProxy)
	if err != nil {
		return common.Address{}, err
	}
	opts, err := c.opts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	addr, tx, _, err := bind.DeployContract(opts, proxyArt.ABI, proxyArt.Bytecode, c.client.Backend(), impl, initData)
	if err != nil {
		return common.Address{}, fmt.Errorf("deploy %s proxy: %w", name, err)
	}
	if _, err := c.wait(ctx, name+" proxy", tx); err != nil {
		return common.Address{}, err
	}
	c.log.Info("module deployed", zap.String("contract", name), zap.String("proxy", addr.Hex()))
	return addr, nil
}

func (c *ChainDeployer) DeployTimelock(ctx context.Context, minDelay *big.Int, admin common.Address) (common.Address, error) {
	return c.deployProxy(ctx, artifactTimelock, minDelay, admin)
}

func (c *ChainDeployer) DeployToken(ctx context.Context) (common.Address, error) {
	return c.deployProxy(ctx, artifactToken, c.client.From())
}

func (c *ChainDeployer) DeployTreasury(ctx context.Context) (common.Address, error) {
	return c.deployProxy(ctx, artifactTreasury)
}

func (c *ChainDeployer) DeployGovernor(ctx context.Context, token, timelock common.Address) (common.Address, error) {
	return c.deployProxy(ctx, artifactGovernor, token, timelock)
}

func (c *ChainDeployer) DeployKernel(ctx context.Context, modules dao.ModuleSet) (common.Address, error) {
	return c.deployProxy(ctx, artifactKernel, modules.Timelock, modules.Governor, modules.Token, modules.Treasury)
}

func (c *ChainDeployer) submit(ctx context.Context, what string, send func(*bind.TransactOpts) (*types.Transaction, error)) error {
	opts, err := c.opts(ctx)
	if err != nil {
		return err
	}
	tx, err := send(opts)
	if err != nil {
		return err
	}
	_, err = c.wait(ctx, what, tx)
	return err
}

func (c *ChainDeployer) MintMembership(ctx context.Context, token, member common.Address) error {
	return c.submit(ctx, "mint membership", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.tr.Mint(opts, token, member)
	})
}

func (c *ChainDeployer) SetKernel(ctx context.Context, module, kernel common.Address) error {
	return c.submit(ctx, "set kernel", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.tr.SetKernel(opts, module, kernel)
	})
}

func (c *ChainDeployer) GrantRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) error {
	return c.submit(ctx, "grant role", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.tr.GrantRole(opts, target, role, account)
	})
}

func (c *ChainDeployer) RevokeRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) error {
	return c.submit(ctx, "revoke role", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.tr.RevokeRole(opts, target, role, account)
	})
}

func (c *ChainDeployer) TransferOwnership(ctx context.Context, module, newOwner common.Address) error {
	return c.submit(ctx, "transfer ownership", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return c.tr.TransferOwnership(opts, module, newOwner)
	})
}
