// Package genesis orchestrates the deployment and wiring of a fresh
// DAO module set: timelock, membership token, treasury, governor and
// kernel registry. The factory contract runs the same procedure
// atomically on-chain; this package is the step-by-step rendition used
// when no factory is available, and the single source of truth for the
// input rules both paths share.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"daokit-go/internal/dao"
)

var (
	ErrZeroMember   = errors.New("member list contains the zero address")
	ErrZeroDeployer = errors.New("deployer address is zero")
	ErrNilMinDelay  = errors.New("min delay is required")
)

// Plan is a validated genesis input: the timelock's minimum delay and
// the normalized member list.
type Plan struct {
	MinDelay *big.Int
	Deployer common.Address
	// Members is the effective list after the caller-inclusion rule.
	Members []common.Address
	// Supplied is the validated input list, verbatim. The factory
	// path sends this on-chain so the contract applies the
	// caller-inclusion rule itself; rederiving it from Members would
	// lose a deployer duplicate at the head of the supplied list.
	Supplied []common.Address
}

// NewPlan validates the input and normalizes the member list. The
// effective list is deployer ∪ initialMembers: the deployer goes first
// unless already present, in which case the supplied order is kept
// verbatim. Duplicates among the supplied members are preserved.
func NewPlan(minDelay *big.Int, deployer common.Address, initialMembers []common.Address) (Plan, error) {
	if minDelay == nil || minDelay.Sign() < 0 {
		return Plan{}, ErrNilMinDelay
	}
	if deployer == (common.Address{}) {
		return Plan{}, ErrZeroDeployer
	}
	seen := false
	for _, m := range initialMembers {
		if m == (common.Address{}) {
			return Plan{}, ErrZeroMember
		}
		if m == deployer {
			seen = true
		}
	}
	members := make([]common.Address, 0, len(initialMembers)+1)
	if !seen {
		members = append(members, deployer)
	}
	members = append(members, initialMembers...)
	supplied := make([]common.Address, len(initialMembers))
	copy(supplied, initialMembers)
	return Plan{
		MinDelay: new(big.Int).Set(minDelay),
		Deployer: deployer,
		Members:  members,
		Supplied: supplied,
	}, nil
}

// Deployer is the step vocabulary of the genesis procedure. The chain
// implementation submits one transaction per call; test fakes record
// the calls instead.
type Deployer interface {
	DeployTimelock(ctx context.Context, minDelay *big.Int, admin common.Address) (common.Address, error)
	DeployToken(ctx context.Context) (common.Address, error)
	DeployTreasury(ctx context.Context) (common.Address, error)
	DeployGovernor(ctx context.Context, token, timelock common.Address) (common.Address, error)
	DeployKernel(ctx context.Context, modules dao.ModuleSet) (common.Address, error)
	MintMembership(ctx context.Context, token, member common.Address) error
	SetKernel(ctx context.Context, module, kernel common.Address) error
	GrantRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) error
	RevokeRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) error
	TransferOwnership(ctx context.Context, module, newOwner common.Address) error
}

// Result summarizes a completed genesis run.
type Result struct {
	Modules dao.ModuleSet
	Members []common.Address
	Steps   []string
}

// StepError reports which step failed and which steps had already been
// submitted and mined. There is no rollback across transactions, so
// the operator needs the completed list to clean up.
type StepError struct {
	Step      string
	Completed []string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("genesis step %s failed after %d completed steps: %v", e.Step, len(e.Completed), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run executes the fixed genesis sequence against a Deployer. The
// order is deliberate: the governor needs the token and timelock, and
// the kernel needs everything deployed before it.
func Run(ctx context.Context, d Deployer, plan Plan) (*Result, error) {
	res := &Result{Members: plan.Members}
	fail := func(step string, err error) (*Result, error) {
		return nil, &StepError{Step: step, Completed: res.Steps, Err: err}
	}
	done := func(format string, args ...interface{}) {
		res.Steps = append(res.Steps, fmt.Sprintf(format, args...))
	}

	// The deployer holds the timelock admin role only for the duration
	// of this procedure.
	timelock, err := d.DeployTimelock(ctx, plan.MinDelay, plan.Deployer)
	if err != nil {
		return fail("deploy timelock", err)
	}
	done("deploy timelock %s", timelock.Hex())

	token, err := d.DeployToken(ctx)
	if err != nil {
		return fail("deploy token", err)
	}
	done("deploy token %s", token.Hex())

	for _, member := range plan.Members {
		if err := d.MintMembership(ctx, token, member); err != nil {
			return fail(fmt.Sprintf("mint membership for %s", member.Hex()), err)
		}
		done("mint membership %s", member.Hex())
	}

	treasury, err := d.DeployTreasury(ctx)
	if err != nil {
		return fail("deploy treasury", err)
	}
	done("deploy treasury %s", treasury.Hex())

	governor, err := d.DeployGovernor(ctx, token, timelock)
	if err != nil {
		return fail("deploy governor", err)
	}
	done("deploy governor %s", governor.Hex())

	res.Modules = dao.ModuleSet{Timelock: timelock, Token: token, Governor: governor, Treasury: treasury}
	kernel, err := d.DeployKernel(ctx, res.Modules)
	if err != nil {
		return fail("deploy kernel", err)
	}
	res.Modules.Kernel = kernel
	done("deploy kernel %s", kernel.Hex())

	for _, module := range []common.Address{timelock, token, treasury, governor} {
		if err := d.SetKernel(ctx, module, kernel); err != nil {
			return fail(fmt.Sprintf("set kernel on %s", module.Hex()), err)
		}
		done("set kernel on %s", module.Hex())
	}

	// Timelock role table: proposer = governor, executor = open
	// (zero address), admin = the timelock itself.
	grants := []struct {
		role    common.Hash
		account common.Address
		label   string
	}{
		{dao.RoleProposer, governor, "proposer -> governor"},
		{dao.RoleExecutor, common.Address{}, "executor -> open"},
		{dao.RoleDefaultAdmin, timelock, "admin -> timelock"},
	}
	for _, g := range grants {
		if err := d.GrantRole(ctx, timelock, g.role, g.account); err != nil {
			return fail(fmt.Sprintf("grant %s", g.label), err)
		}
		done("grant %s", g.label)
	}

	for _, module := range []common.Address{token, treasury, governor, kernel} {
		if err := d.TransferOwnership(ctx, module, timelock); err != nil {
			return fail(fmt.Sprintf("transfer ownership of %s", module.Hex()), err)
		}
		done("transfer ownership of %s to timelock", module.Hex())
	}

	if err := d.RevokeRole(ctx, timelock, dao.RoleDefaultAdmin, plan.Deployer); err != nil {
		return fail("revoke deployer admin", err)
	}
	done("revoke deployer admin")

	return res, nil
}
