// Package verify checks that a deployed module set is wired the way
// genesis promises: kernel records, timelock role table, ownership
// handoff and member voting weights.
package verify

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"daokit-go/internal/dao"
)

// ContractReader is the read surface the checks need. internal/dao's
// Reader implements it against a live chain.
type ContractReader interface {
	ModuleAddress(ctx context.Context, kernel common.Address, tag common.Hash) (common.Address, error)
	HasRole(ctx context.Context, target common.Address, role common.Hash, account common.Address) (bool, error)
	Owner(ctx context.Context, target common.Address) (common.Address, error)
	Votes(ctx context.Context, token, account common.Address) (*big.Int, error)
	MinDelay(ctx context.Context, timelock common.Address) (*big.Int, error)
}

type Finding struct {
	Check  string `json:"check"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type Report struct {
	Findings []Finding `json:"findings"`
}

func (r *Report) OK() bool {
	for _, f := range r.Findings {
		if !f.OK {
			return false
		}
	}
	return true
}

func (r *Report) add(check string, ok bool, detail string) {
	r.Findings = append(r.Findings, Finding{Check: check, OK: ok, Detail: detail})
}

// Wiring runs every post-genesis check. A read failure aborts with an
// error; a wiring mismatch lands in the report instead. minDelay is
// the delay the genesis was recorded with; nil skips the check (watch
// mode records deployments without it).
func Wiring(ctx context.Context, reader ContractReader, modules dao.ModuleSet, deployer common.Address, members []common.Address, minDelay *big.Int) (*Report, error) {
	report := &Report{}

	if minDelay != nil {
		got, err := reader.MinDelay(ctx, modules.Timelock)
		if err != nil {
			return nil, err
		}
		if got.Cmp(minDelay) == 0 {
			report.add("timelock min delay", true, "")
		} else {
			report.add("timelock min delay", false, fmt.Sprintf("configured %s, recorded %s", got, minDelay))
		}
	}

	// Kernel records must match the deployed proxies exactly.
	for tag, want := range modules.ByTag() {
		got, err := reader.ModuleAddress(ctx, modules.Kernel, tag)
		if err != nil {
			return nil, err
		}
		check := fmt.Sprintf("kernel record %s", dao.TagName(tag))
		if got == want {
			report.add(check, true, "")
		} else {
			report.add(check, false, fmt.Sprintf("kernel records %s, proxy is %s", got.Hex(), want.Hex()))
		}
	}

	// Role table: proposer = governor, executor = open, admin = the
	// timelock itself, and the deployer's temporary admin revoked.
	roleChecks := []struct {
		check   string
		role    common.Hash
		account common.Address
		want    bool
	}{
		{"governor holds proposer role", dao.RoleProposer, modules.Governor, true},
		{"executor role is open", dao.RoleExecutor, common.Address{}, true},
		{"timelock self-administers", dao.RoleDefaultAdmin, modules.Timelock, true},
		{"deployer admin revoked", dao.RoleDefaultAdmin, deployer, false},
	}
	for _, rc := range roleChecks {
		has, err := reader.HasRole(ctx, modules.Timelock, rc.role, rc.account)
		if err != nil {
			return nil, err
		}
		if has == rc.want {
			report.add(rc.check, true, "")
		} else {
			report.add(rc.check, false, fmt.Sprintf("hasRole(%s, %s) = %t", rc.role.Hex(), rc.account.Hex(), has))
		}
	}

	// Every module is owned by the timelock after handoff.
	owned := map[string]common.Address{
		"token":    modules.Token,
		"treasury": modules.Treasury,
		"governor": modules.Governor,
		"kernel":   modules.Kernel,
	}
	for name, addr := range owned {
		owner, err := reader.Owner(ctx, addr)
		if err != nil {
			return nil, err
		}
		check := fmt.Sprintf("timelock owns %s", name)
		if owner == modules.Timelock {
			report.add(check, true, "")
		} else {
			report.add(check, false, fmt.Sprintf("owner is %s", owner.Hex()))
		}
	}

	// One soulbound credential, one vote, no delegation.
	for _, member := range members {
		votes, err := reader.Votes(ctx, modules.Token, member)
		if err != nil {
			return nil, err
		}
		check := fmt.Sprintf("member %s voting weight", member.Hex())
		if votes.Cmp(big.NewInt(1)) == 0 {
			report.add(check, true, "")
		} else {
			report.add(check, false, fmt.Sprintf("weight is %s, want 1", votes))
		}
	}

	return report, nil
}
