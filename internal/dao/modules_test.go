package dao

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaoDeployedTopicMatchesABI(t *testing.T) {
	assert.Equal(t, factoryABI.Events["DaoDeployed"].ID, DaoDeployedTopic)
}

func TestTimelockRoleIDs(t *testing.T) {
	// Role ids must match OpenZeppelin's TimelockController constants.
	assert.Equal(t, "0xb09aa5aeb3702cfd50b6b62bc4532604938f21248a27a1d5ca736082b6819cc1", RoleProposer.Hex())
	assert.Equal(t, "0xd8aa0f3194971a2a116679f7c2090f6939c8d4e01a2a8d7e41d55e5351469e63", RoleExecutor.Hex())
	assert.Equal(t, common.Hash{}, RoleDefaultAdmin)
}

func TestTagNames(t *testing.T) {
	for _, tag := range Tags() {
		assert.NotEqual(t, tag.Hex(), TagName(tag))
	}
	assert.Equal(t, "TIMELOCK", TagName(TagTimelock))
	assert.Equal(t, "TREASURY", TagName(TagTreasury))
}

func TestModuleSetByTag(t *testing.T) {
	m := ModuleSet{
		Timelock: common.HexToAddress("0x1"),
		Token:    common.HexToAddress("0x2"),
		Governor: common.HexToAddress("0x3"),
		Treasury: common.HexToAddress("0x4"),
		Kernel:   common.HexToAddress("0x5"),
	}
	byTag := m.ByTag()
	require.Len(t, byTag, 4)
	assert.Equal(t, m.Timelock, byTag[TagTimelock])
	assert.Equal(t, m.Governor, byTag[TagGovernor])
	assert.Equal(t, m.Token, byTag[TagToken])
	assert.Equal(t, m.Treasury, byTag[TagTreasury])
}

func daoDeployedLog(t *testing.T, deployer common.Address, m ModuleSet) types.Log {
	t.Helper()
	data, err := factoryABI.Events["DaoDeployed"].Inputs.NonIndexed().Pack(
		m.Timelock, m.Token, m.Governor, m.Treasury, m.Kernel)
	require.NoError(t, err)
	return types.Log{
		Topics: []common.Hash{DaoDeployedTopic, common.BytesToHash(deployer.Bytes())},
		Data:   data,
		TxHash: common.HexToHash("0xdead"),
	}
}

func TestParseDaoDeployed(t *testing.T) {
	deployer := common.HexToAddress("0xCCC0000000000000000000000000000000000001")
	want := ModuleSet{
		Timelock: common.HexToAddress("0x10"),
		Token:    common.HexToAddress("0x20"),
		Governor: common.HexToAddress("0x30"),
		Treasury: common.HexToAddress("0x40"),
		Kernel:   common.HexToAddress("0x50"),
	}

	ev, err := ParseDaoDeployed(daoDeployedLog(t, deployer, want))
	require.NoError(t, err)
	assert.Equal(t, deployer, ev.Deployer)
	assert.Equal(t, want, ev.Modules)
	assert.Equal(t, common.HexToHash("0xdead"), ev.TxHash)
}

func TestParseDaoDeployedRejectsForeignLog(t *testing.T) {
	_, err := ParseDaoDeployed(types.Log{Topics: []common.Hash{common.HexToHash("0x1"), {}}})
	assert.ErrorIs(t, err, ErrNotDaoDeployed)

	// Right topic0 but missing the indexed deployer.
	_, err = ParseDaoDeployed(types.Log{Topics: []common.Hash{DaoDeployedTopic}})
	assert.ErrorIs(t, err, ErrNotDaoDeployed)
}
