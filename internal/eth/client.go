package eth

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/sbt-migration/backend/internal/config"
)

const (
	sbtABIJSON = `[
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"getMessages","type":"function","stateMutability":"view","inputs":[{"name":"tokenIndex","type":"uint256"}],"outputs":[{"name":"","type":"bytes32[]"}]}
	]`
	faucetABIJSON = `[
		{"name":"mintNativeCoin","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
	]`
	eip1271ABIJSON = `[
		{"name":"isValidSignature","type":"function","stateMutability":"view","inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"bytes4"}]}
	]`
)

// eip1271Magic is the isValidSignature success return value.
var eip1271Magic = [4]byte{0x16, 0x26, 0xba, 0x7e}

// Client wraps one chain's RPC endpoint. Construct one per configured
// network; all reads go through eth_call, writes are signed locally.
type Client struct {
	chainID   *big.Int
	rpc       *ethclient.Client
	sbtABI    abi.ABI
	faucetABI abi.ABI
	erc1271   abi.ABI
	log       *zap.Logger
}

func NewClient(ctx context.Context, network config.Network, log *zap.Logger) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", network.RPCURL, err)
	}

	sbt, err := abi.JSON(strings.NewReader(sbtABIJSON))
	if err != nil {
		return nil, err
	}
	faucet, err := abi.JSON(strings.NewReader(faucetABIJSON))
	if err != nil {
		return nil, err
	}
	erc1271, err := abi.JSON(strings.NewReader(eip1271ABIJSON))
	if err != nil {
		return nil, err
	}

	log.Info("chain client connected",
		zap.Int64("chain_id", network.ChainID),
		zap.String("rpc", network.RPCURL),
	)

	return &Client{
		chainID:   big.NewInt(network.ChainID),
		rpc:       rpc,
		sbtABI:    sbt,
		faucetABI: faucet,
		erc1271:   erc1271,
		log:       log,
	}, nil
}

func (c *Client) ChainID() int64 { return c.chainID.Int64() }

func (c *Client) Close() {
	c.rpc.Close()
}

// BalanceOf returns the ERC-721 balance of owner on the given contract.
func (c *Client) BalanceOf(ctx context.Context, contract, owner common.Address) (*big.Int, error) {
	data, err := c.sbtABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	res, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call: %w", err)
	}
	out, err := c.sbtABI.Unpack("balanceOf", res)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// OwnerOf returns the owner of a token. ownerOf reverts for tokens that were
// never minted; that case maps to the zero-address sentinel, not an error.
func (c *Client) OwnerOf(ctx context.Context, contract common.Address, tokenID *big.Int) (common.Address, error) {
	data, err := c.sbtABI.Pack("ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	res, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return common.Address{}, nil
	}
	out, err := c.sbtABI.Unpack("ownerOf", res)
	if err != nil {
		return common.Address{}, nil
	}
	return out[0].(common.Address), nil
}

// MessageHashes returns the content hashes minted onto a token.
func (c *Client) MessageHashes(ctx context.Context, contract common.Address, tokenID *big.Int) ([]common.Hash, error) {
	data, err := c.sbtABI.Pack("getMessages", tokenID)
	if err != nil {
		return nil, err
	}
	res, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("getMessages call: %w", err)
	}
	out, err := c.sbtABI.Unpack("getMessages", res)
	if err != nil {
		return nil, err
	}
	raw, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("getMessages: unexpected return type %T", out[0])
	}
	hashes := make([]common.Hash, len(raw))
	for i, h := range raw {
		hashes[i] = common.Hash(h)
	}
	return hashes, nil
}

// MintNativeCoin submits a faucet mint from the backend faucet key and waits
// for the receipt. The call is simulated via gas estimation first, so
// ineligible mints fail before a transaction is broadcast.
func (c *Client) MintNativeCoin(ctx context.Context, privKeyHex string, faucet, recipient common.Address, amount *big.Int) (common.Hash, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid faucet key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	data, err := c.faucetABI.Pack("mintNativeCoin", recipient, amount)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := c.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}
	gasLimit, err := c.rpc.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &faucet, Data: data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("simulate mintNativeCoin: %w", err)
	}

	tx := types.NewTransaction(nonce, faucet, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.rpc, signed)
	if err != nil {
		return signed.Hash(), fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return signed.Hash(), fmt.Errorf("mintNativeCoin reverted: tx %s", signed.Hash())
	}

	c.log.Info("faucet mint confirmed",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("recipient", recipient.Hex()),
	)
	return signed.Hash(), nil
}

// ValidSignature asks a contract wallet whether it accepts a signature over
// the given digest (EIP-1271).
func (c *Client) ValidSignature(ctx context.Context, wallet common.Address, digest common.Hash, signature []byte) (bool, error) {
	data, err := c.erc1271.Pack("isValidSignature", digest, signature)
	if err != nil {
		return false, err
	}
	res, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &wallet, Data: data}, nil)
	if err != nil {
		return false, nil
	}
	out, err := c.erc1271.Unpack("isValidSignature", res)
	if err != nil {
		return false, nil
	}
	magic, ok := out[0].([4]byte)
	if !ok {
		return false, nil
	}
	return magic == eip1271Magic, nil
}
