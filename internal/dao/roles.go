package dao

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Kernel registry tags. The kernel maps each tag to the current proxy
// address for that module; the kernel itself is not registered.
var (
	TagTimelock = crypto.Keccak256Hash([]byte("TIMELOCK"))
	TagGovernor = crypto.Keccak256Hash([]byte("GOVERNOR"))
	TagToken    = crypto.Keccak256Hash([]byte("TOKEN"))
	TagTreasury = crypto.Keccak256Hash([]byte("TREASURY"))
)

// Timelock access-control role ids (OpenZeppelin TimelockController).
var (
	RoleDefaultAdmin = common.Hash{}
	RoleProposer     = crypto.Keccak256Hash([]byte("PROPOSER_ROLE"))
	RoleExecutor     = crypto.Keccak256Hash([]byte("EXECUTOR_ROLE"))
)

// Tags returns the registry tags in their canonical order.
func Tags() []common.Hash {
	return []common.Hash{TagTimelock, TagGovernor, TagToken, TagTreasury}
}

// TagName maps a registry tag back to its label, for logs and reports.
func TagName(tag common.Hash) string {
	switch tag {
	case TagTimelock:
		return "TIMELOCK"
	case TagGovernor:
		return "GOVERNOR"
	case TagToken:
		return "TOKEN"
	case TagTreasury:
		return "TREASURY"
	}
	return tag.Hex()
}
