package dao

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Interaction ABIs for the deployed module set. These cover only the
// surface this toolkit calls; the full ABIs ship with the compiled
// artifacts used by the step deployer.

const FactoryABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "minDelay", "type": "uint256"},
			{"internalType": "address[]", "name": "initialMembers", "type": "address[]"}
		],
		"name": "deployDao",
		"outputs": [
			{"internalType": "address", "name": "timelock", "type": "address"},
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "address", "name": "governor", "type": "address"},
			{"internalType": "address", "name": "treasury", "type": "address"},
			{"internalType": "address", "name": "kernel", "type": "address"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "deployer", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "timelock", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "token", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "governor", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "treasury", "type": "address"},
			{"indexed": false, "internalType": "address", "name": "kernel", "type": "address"}
		],
		"name": "DaoDeployed",
		"type": "event"
	}
]`

const KernelABI = `[
	{
		"inputs": [{"internalType": "bytes32", "name": "tag", "type": "bytes32"}],
		"name": "moduleAddress",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "newOwner", "type": "address"}],
		"name": "transferOwnership",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const TimelockABI = `[
	{
		"inputs": [
			{"internalType": "bytes32", "name": "role", "type": "bytes32"},
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "hasRole",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getMinDelay",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "role", "type": "bytes32"},
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "grantRole",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "role", "type": "bytes32"},
			{"internalType": "address", "name": "account", "type": "address"}
		],
		"name": "revokeRole",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "kernel", "type": "address"}],
		"name": "setKernel",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const MembershipTokenABI = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "getVotes",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "to", "type": "address"}],
		"name": "mint",
		"outputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "kernel", "type": "address"}],
		"name": "setKernel",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "newOwner", "type": "address"}],
		"name": "transferOwnership",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// ModuleABI is the shared write surface of the treasury and governor
// proxies: ownership handoff and kernel wiring.
const ModuleABI = `[
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "kernel", "type": "address"}],
		"name": "setKernel",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "newOwner", "type": "address"}],
		"name": "transferOwnership",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	factoryABI  = mustABI(FactoryABI)
	kernelABI   = mustABI(KernelABI)
	timelockABI = mustABI(TimelockABI)
	tokenABI    = mustABI(MembershipTokenABI)
	moduleABI   = mustABI(ModuleABI)

	// DaoDeployedTopic is the topic0 of the factory's summary event.
	DaoDeployedTopic = crypto.Keccak256Hash([]byte("DaoDeployed(address,address,address,address,address,address)"))
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
