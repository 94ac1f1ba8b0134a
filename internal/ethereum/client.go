package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

var weiPerEther = decimal.New(1, 18)

// Client wraps the ethereum node connection and the deployer key.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

// Dial connects to an ethereum node and caches its chain id.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect to ethereum node: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	return &Client{eth: eth, chainID: chainID}, nil
}

// UseKey loads the hex-encoded deployer key used to sign transactions.
func (c *Client) UseKey(hexKey string) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	c.key = key
	c.from = crypto.PubkeyToAddress(key.PublicKey)
	return nil
}

func (c *Client) From() common.Address { return c.from }

func (c *Client) ChainID() *big.Int { return c.chainID }

// Backend exposes the underlying connection for contract bindings.
func (c *Client) Backend() *ethclient.Client { return c.eth }

// TransactOpts builds signing options for the deployer key.
func (c *Client) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, errors.New("no deployer key loaded")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// WaitMined blocks until the transaction is mined or ctx is done.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for tx %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

// BalanceEther returns an account balance denominated in ether.
func (c *Client) BalanceEther(ctx context.Context, account common.Address) (decimal.Decimal, error) {
	wei, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return WeiToEther(wei), nil
}

// SendEther transfers a plain ether amount from the deployer key.
func (c *Client) SendEther(ctx context.Context, to common.Address, amount decimal.Decimal) (*types.Transaction, error) {
	if c.key == nil {
		return nil, errors.New("no deployer key loaded")
	}
	wei, err := EtherToWei(amount)
	if err != nil {
		return nil, err
	}
	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    wei,
		Gas:      21000,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign transfer: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transfer: %w", err)
	}
	return signed, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// WeiToEther converts a wei amount to a decimal ether amount.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Div(weiPerEther)
}

// EtherToWei converts a decimal ether amount to wei. Amounts with more
// than 18 fractional digits are rejected rather than truncated.
func EtherToWei(ether decimal.Decimal) (*big.Int, error) {
	if ether.IsNegative() {
		return nil, fmt.Errorf("negative ether amount %s", ether)
	}
	wei := ether.Mul(weiPerEther)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("ether amount %s has sub-wei precision", ether)
	}
	return wei.BigInt(), nil
}
