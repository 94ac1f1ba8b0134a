package dao

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transactor submits the wiring transactions of the genesis procedure
// against already-deployed module proxies.
type Transactor struct {
	backend bind.ContractBackend
}

func NewTransactor(backend bind.ContractBackend) *Transactor {
	return &Transactor{backend: backend}
}

func (t *Transactor) transact(opts *bind.TransactOpts, target common.Address, contractABI abi.ABI, method string, args ...interface{}) (*types.Transaction, error) {
	bound := bind.NewBoundContract(target, contractABI, t.backend, t.backend, t.backend)
	tx, err := bound.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s on %s: %w", method, target.Hex(), err)
	}
	return tx, nil
}

func (t *Transactor) Mint(opts *bind.TransactOpts, token, member common.Address) (*types.Transaction, error) {
	return t.transact(opts, token, tokenABI, "mint", member)
}

func (t *Transactor) SetKernel(opts *bind.TransactOpts, module, kernel common.Address) (*types.Transaction, error) {
	return t.transact(opts, module, moduleABI, "setKernel", kernel)
}

func (t *Transactor) GrantRole(opts *bind.TransactOpts, target common.Address, role common.Hash, account common.Address) (*types.Transaction, error) {
	return t.transact(opts, target, timelockABI, "grantRole", [32]byte(role), account)
}

func (t *Transactor) RevokeRole(opts *bind.TransactOpts, target common.Address, role common.Hash, account common.Address) (*types.Transaction, error) {
	return t.transact(opts, target, timelockABI, "revokeRole", [32]byte(role), account)
}

func (t *Transactor) TransferOwnership(opts *bind.TransactOpts, module, newOwner common.Address) (*types.Transaction, error) {
	return t.transact(opts, module, moduleABI, "transferOwnership", newOwner)
}
