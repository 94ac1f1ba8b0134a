package dao

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Reader answers read-only questions about a deployed module set. It
// satisfies the verifier's ContractReader.
type Reader struct {
	caller bind.ContractCaller
}

func NewReader(caller bind.ContractCaller) *Reader {
	return &Reader{caller: caller}
}

func (r *Reader) call(ctx context.Context, target common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	bound := bind.NewBoundContract(target, contractABI, r.caller, nil, nil)
	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, target.Hex(), err)
	}
	return out, nil
}

// ModuleAddress reads the kernel's record for a registry tag.
func (r *Reader) ModuleAddress(ctx context.Context, kernel common.Address, tag common.Hash) (common.Address, error) {
	out, err := r.call(ctx, kernel, kernelABI, "moduleAddress", [32]byte(tag))
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// HasRole reads the timelock's access table.
func (r *Reader) HasRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) (bool, error) {
	out, err := r.call(ctx, target, timelockABI, "hasRole", [32]byte(role), account)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// Owner reads the Ownable owner of a module proxy.
func (r *Reader) Owner(ctx context.Context, target common.Address) (common.Address, error) {
	out, err := r.call(ctx, target, moduleABI, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Votes reads a member's current voting weight on the membership token.
func (r *Reader) Votes(ctx context.Context, token, account common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, tokenABI, "getVotes", account)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// MinDelay reads the timelock's configured minimum delay in seconds.
func (r *Reader) MinDelay(ctx context.Context, timelock common.Address) (*big.Int, error) {
	out, err := r.call(ctx, timelock, timelockABI, "getMinDelay")
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}
