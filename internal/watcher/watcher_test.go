package watcher

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"daokit-go/internal/dao"
	"daokit-go/internal/store"
)

func TestRecordPersistsEvent(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "daokit.db"))
	require.NoError(t, err)
	defer db.Close()

	w := New(nil, 31337, "local", db, zap.NewNop())
	w.record(&dao.DaoDeployedEvent{
		Deployer: common.HexToAddress("0xCCC0000000000000000000000000000000000001"),
		Modules: dao.ModuleSet{
			Timelock: common.HexToAddress("0x10"),
			Token:    common.HexToAddress("0x20"),
			Governor: common.HexToAddress("0x30"),
			Treasury: common.HexToAddress("0x40"),
			Kernel:   common.HexToAddress("0x50"),
		},
		TxHash: common.HexToHash("0xfeed"),
		Block:  12,
	})

	list, err := db.List(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(31337), list[0].ChainID)
	assert.Equal(t, "local", list[0].Network)
	assert.Equal(t, common.HexToHash("0xfeed").Hex(), list[0].TxHash)
	assert.Equal(t, common.HexToAddress("0x50").Hex(), list[0].Kernel)
}

func TestRecordSkipsAlreadyRecordedTx(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "daokit.db"))
	require.NoError(t, err)
	defer db.Close()

	// The launcher records the genesis it submitted; the watcher then
	// sees the same event on the log stream and must not duplicate it.
	require.NoError(t, db.Record(&store.Deployment{
		ChainID:  31337,
		Network:  "local",
		TxHash:   common.HexToHash("0xfeed").Hex(),
		Deployer: "0xCCC0000000000000000000000000000000000001",
		MinDelay: 180,
		Timelock: "0x0000000000000000000000000000000000000010",
		Token:    "0x0000000000000000000000000000000000000020",
		Governor: "0x0000000000000000000000000000000000000030",
		Treasury: "0x0000000000000000000000000000000000000040",
		Kernel:   "0x0000000000000000000000000000000000000050",
	}))

	w := New(nil, 31337, "local", db, zap.NewNop())
	w.record(&dao.DaoDeployedEvent{
		Deployer: common.HexToAddress("0xCCC0000000000000000000000000000000000001"),
		Modules: dao.ModuleSet{
			Timelock: common.HexToAddress("0x10"),
			Token:    common.HexToAddress("0x20"),
			Governor: common.HexToAddress("0x30"),
			Treasury: common.HexToAddress("0x40"),
			Kernel:   common.HexToAddress("0x50"),
		},
		TxHash: common.HexToHash("0xfeed"),
		Block:  12,
	})

	list, err := db.List(10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
