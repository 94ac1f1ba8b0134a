package launcher

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daokit-go/internal/dao"
	"daokit-go/internal/store"
)

// chainReader answers the verifier's reads for one well-wired module
// set and counts the min-delay lookups.
type chainReader struct {
	modules       dao.ModuleSet
	minDelay      int64
	minDelayReads int
}

func (r *chainReader) ModuleAddress(_ context.Context, _ common.Address, tag common.Hash) (common.Address, error) {
	return r.modules.ByTag()[tag], nil
}

func (r *chainReader) HasRole(_ context.Context, _ common.Address, role common.Hash, account common.Address) (bool, error) {
	switch role {
	case dao.RoleProposer:
		return account == r.modules.Governor, nil
	case dao.RoleExecutor:
		return account == (common.Address{}), nil
	default:
		return account == r.modules.Timelock, nil
	}
}

func (r *chainReader) Owner(_ context.Context, _ common.Address) (common.Address, error) {
	return r.modules.Timelock, nil
}

func (r *chainReader) Votes(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (r *chainReader) MinDelay(_ context.Context, _ common.Address) (*big.Int, error) {
	r.minDelayReads++
	return big.NewInt(r.minDelay), nil
}

func recordedRow() (*store.Deployment, *chainReader) {
	modules := dao.ModuleSet{
		Timelock: common.HexToAddress("0x10"),
		Token:    common.HexToAddress("0x20"),
		Governor: common.HexToAddress("0x30"),
		Treasury: common.HexToAddress("0x40"),
		Kernel:   common.HexToAddress("0x50"),
	}
	deployer := common.HexToAddress("0xCCC0000000000000000000000000000000000001")
	member := common.HexToAddress("0xAAA0000000000000000000000000000000000001")

	d := &store.Deployment{
		ChainID:  31337,
		Deployer: deployer.Hex(),
		MinDelay: 180,
		Timelock: modules.Timelock.Hex(),
		Token:    modules.Token.Hex(),
		Governor: modules.Governor.Hex(),
		Treasury: modules.Treasury.Hex(),
		Kernel:   modules.Kernel.Hex(),
		Members:  []string{deployer.Hex(), member.Hex()},
	}
	return d, &chainReader{modules: modules, minDelay: 180}
}

func TestChainVerifierPassesWellWiredRow(t *testing.T) {
	d, reader := recordedRow()

	report, err := NewChainVerifier(reader).Verify(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, report.OK())
	// min delay + 4 kernel records + 4 roles + 4 owners + 2 members.
	assert.Len(t, report.Findings, 15)
	assert.Equal(t, 1, reader.minDelayReads)
}

func TestChainVerifierFlagsDelayDrift(t *testing.T) {
	d, reader := recordedRow()
	reader.minDelay = 60

	report, err := NewChainVerifier(reader).Verify(context.Background(), d)
	require.NoError(t, err)
	assert.False(t, report.OK())

	var failed []string
	for _, f := range report.Findings {
		if !f.OK {
			failed = append(failed, f.Check)
		}
	}
	assert.Equal(t, []string{"timelock min delay"}, failed)
}

func TestChainVerifierSkipsDelayForWatchRows(t *testing.T) {
	d, reader := recordedRow()
	d.MinDelay = 0

	report, err := NewChainVerifier(reader).Verify(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Findings, 14)
	assert.Zero(t, reader.minDelayReads)
}

func TestHexMembers(t *testing.T) {
	a := common.HexToAddress("0xAAA0000000000000000000000000000000000001")
	b := common.HexToAddress("0xBBB0000000000000000000000000000000000001")
	assert.Equal(t, []string{a.Hex(), b.Hex()}, hexMembers([]common.Address{a, b}))
}
