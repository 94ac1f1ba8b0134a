package dao

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ModuleSet holds the five proxy addresses produced by a genesis run.
type ModuleSet struct {
	Timelock common.Address
	Token    common.Address
	Governor common.Address
	Treasury common.Address
	Kernel   common.Address
}

// ByTag returns the registry view of the set: tag -> proxy address.
// The kernel routes upgrades by these entries, so this is also the
// shape the verifier checks against the live kernel.
func (m ModuleSet) ByTag() map[common.Hash]common.Address {
	return map[common.Hash]common.Address{
		TagTimelock: m.Timelock,
		TagGovernor: m.Governor,
		TagToken:    m.Token,
		TagTreasury: m.Treasury,
	}
}

func (m ModuleSet) String() string {
	return fmt.Sprintf("timelock=%s token=%s governor=%s treasury=%s kernel=%s",
		m.Timelock.Hex(), m.Token.Hex(), m.Governor.Hex(), m.Treasury.Hex(), m.Kernel.Hex())
}

// DaoDeployedEvent is the parsed factory summary event.
type DaoDeployedEvent struct {
	Deployer common.Address
	Modules  ModuleSet
	TxHash   common.Hash
	Block    uint64
}

var ErrNotDaoDeployed = errors.New("log is not a DaoDeployed event")

// ParseDaoDeployed decodes a DaoDeployed log. The deployer is the one
// indexed topic; the five module addresses ride in the data segment.
func ParseDaoDeployed(log types.Log) (*DaoDeployedEvent, error) {
	if len(log.Topics) != 2 || log.Topics[0] != DaoDeployedTopic {
		return nil, ErrNotDaoDeployed
	}
	var out struct {
		Timelock common.Address
		Token    common.Address
		Governor common.Address
		Treasury common.Address
		Kernel   common.Address
	}
	if err := factoryABI.UnpackIntoInterface(&out, "DaoDeployed", log.Data); err != nil {
		return nil, fmt.Errorf("unpack DaoDeployed: %w", err)
	}
	return &DaoDeployedEvent{
		Deployer: common.BytesToAddress(log.Topics[1].Bytes()),
		Modules: ModuleSet{
			Timelock: out.Timelock,
			Token:    out.Token,
			Governor: out.Governor,
			Treasury: out.Treasury,
			Kernel:   out.Kernel,
		},
		TxHash: log.TxHash,
		Block:  log.BlockNumber,
	}, nil
}
