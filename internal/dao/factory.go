package dao

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Factory wraps the deployed genesis factory contract. One call to
// DeployDao performs the whole genesis atomically on-chain; the only
// externally observable summary is the DaoDeployed event.
type Factory struct {
	addr     common.Address
	contract *bind.BoundContract
}

func NewFactory(addr common.Address, backend bind.ContractBackend) *Factory {
	return &Factory{
		addr:     addr,
		contract: bind.NewBoundContract(addr, factoryABI, backend, backend, backend),
	}
}

func (f *Factory) Address() common.Address { return f.addr }

// DeployDao submits the genesis transaction. The mined receipt carries
// the DaoDeployed event; use Deployed to extract it.
func (f *Factory) DeployDao(opts *bind.TransactOpts, minDelay *big.Int, initialMembers []common.Address) (*types.Transaction, error) {
	tx, err := f.contract.Transact(opts, "deployDao", minDelay, initialMembers)
	if err != nil {
		return nil, fmt.Errorf("deployDao: %w", err)
	}
	return tx, nil
}

// Deployed extracts the DaoDeployed event from a mined receipt.
func (f *Factory) Deployed(receipt *types.Receipt) (*DaoDeployedEvent, error) {
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("genesis transaction %s reverted", receipt.TxHash.Hex())
	}
	for _, log := range receipt.Logs {
		if log.Address != f.addr || len(log.Topics) == 0 || log.Topics[0] != DaoDeployedTopic {
			continue
		}
		return ParseDaoDeployed(*log)
	}
	return nil, fmt.Errorf("receipt %s has no DaoDeployed event", receipt.TxHash.Hex())
}

// WatchDeployments streams DaoDeployed events into sink until the
// subscription fails or is unsubscribed.
func (f *Factory) WatchDeployments(opts *bind.WatchOpts, sink chan<- *DaoDeployedEvent) (event.Subscription, error) {
	logs, sub, err := f.contract.WatchLogs(opts, "DaoDeployed")
	if err != nil {
		return nil, fmt.Errorf("subscribe DaoDeployed: %w", err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				ev, err := ParseDaoDeployed(log)
				if err != nil {
					return err
				}
				select {
				case sink <- ev:
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}
