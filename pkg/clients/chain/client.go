// Package chain talks to the reserve receiver contract over EVM JSON-RPC.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrUnsupportedChain indicates a chain selector name with no known chain id.
var ErrUnsupportedChain = errors.New("unsupported chain selector")

const receiverABI = `[
	{"type":"function","name":"totalMinted","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"onReport","stateMutability":"nonpayable","inputs":[{"name":"metadata","type":"bytes"},{"name":"report","type":"bytes"}],"outputs":[]}
]`

var selectorAliases = map[string]string{
	"ethereum-sepolia": "ethereum-testnet-sepolia",
}

var selectorChainIDs = map[string]int64{
	"ethereum-mainnet":                    1,
	"ethereum-testnet-sepolia":            11155111,
	"ethereum-testnet-sepolia-base-1":     84532,
	"ethereum-testnet-sepolia-arbitrum-1": 421614,
}

// Selector is a resolved chain selector.
type Selector struct {
	Name    string
	ChainID *big.Int
}

// ResolveSelector normalizes aliases and maps the selector name to its chain id.
func ResolveSelector(name string) (Selector, error) {
	normalized := name
	if alias, ok := selectorAliases[name]; ok {
		normalized = alias
	}
	id, ok := selectorChainIDs[normalized]
	if !ok {
		return Selector{}, fmt.Errorf("%w: %s", ErrUnsupportedChain, name)
	}
	return Selector{Name: normalized, ChainID: big.NewInt(id)}, nil
}

// IsZeroAddress reports whether address is the 0x000..0 placeholder.
func IsZeroAddress(address string) bool {
	return common.HexToAddress(address) == (common.Address{})
}

// Config holds connection and signing settings.
type Config struct {
	RPCURL          string
	ContractAddress string
	ChainSelector   string
	PrivateKey      string
	GasLimit        uint64
}

// WriteResult describes a mined report transaction.
type WriteResult struct {
	TxStatus uint64
	TxHash   string
}

// Client reads reserve supply from and writes reports to the receiver contract.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	selector Selector
	key      *ecdsa.PrivateKey
	gasLimit uint64
}

// Dial connects to the RPC endpoint and binds the receiver contract.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	selector, err := ResolveSelector(cfg.ChainSelector)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(receiverABI))
	if err != nil {
		return nil, fmt.Errorf("parse receiver abi: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	var key *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			eth.Close()
			return nil, fmt.Errorf("parse chain private key: %w", err)
		}
	}

	address := common.HexToAddress(cfg.ContractAddress)
	return &Client{
		eth:      eth,
		contract: bind.NewBoundContract(address, parsed, eth, eth, eth),
		selector: selector,
		key:      key,
		gasLimit: cfg.GasLimit,
	}, nil
}

// Selector returns the resolved chain selector.
func (c *Client) Selector() Selector {
	return c.selector
}

// TotalMinted reads totalMinted() at the last finalized block.
func (c *Client) TotalMinted(ctx context.Context) (*big.Int, error) {
	var out []any
	opts := &bind.CallOpts{
		Context:     ctx,
		BlockNumber: big.NewInt(int64(rpc.FinalizedBlockNumber)),
	}
	if err := c.contract.Call(opts, &out, "totalMinted"); err != nil {
		return nil, fmt.Errorf("call totalMinted: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("call totalMinted: unexpected output length %d", len(out))
	}
	minted, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call totalMinted: unexpected output type %T", out[0])
	}
	return minted, nil
}

// WriteReport submits onReport(metadata, report) and waits for the receipt.
func (c *Client) WriteReport(ctx context.Context, metadata, report []byte) (WriteResult, error) {
	if c.key == nil {
		return WriteResult{}, errors.New("CHAIN_PRIVATE_KEY is required to submit reports")
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.selector.ChainID)
	if err != nil {
		return WriteResult{}, fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx
	auth.GasLimit = c.gasLimit

	tx, err := c.contract.Transact(auth, "onReport", metadata, report)
	if err != nil {
		return WriteResult{}, fmt.Errorf("send onReport: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return WriteResult{}, fmt.Errorf("wait for onReport %s: %w", tx.Hash().Hex(), err)
	}

	return WriteResult{TxStatus: receipt.Status, TxHash: tx.Hash().Hex()}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
