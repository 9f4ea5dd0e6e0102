package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/sbt-migration/backend/internal/config"
)

// Typed-data structs the migration contracts verify on-chain. Agreement is
// the backend's pre-approval for a take (mint); MintMessage binds an
// encrypted message hash to a specific token and owner.
var signatureTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Agreement": {
		{Name: "active", Type: "address"},
		{Name: "passive", Type: "address"},
	},
	"MintMessage": {
		{Name: "owner", Type: "address"},
		{Name: "tokenIndex", Type: "uint256"},
		{Name: "message", Type: "bytes32"},
	},
}

func typedDataDomain(network config.Network, contract common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              network.ContractName,
		Version:           network.ContractVersion,
		ChainId:           math.NewHexOrDecimal256(network.ChainID),
		VerifyingContract: contract.Hex(),
	}
}

// SignTake signs Agreement{active: recipient, passive: signer} under the SBT
// contract's domain. The signer is the backend take key: the signature is
// the contract's authorization for recipient to mint, submitted by the
// recipient's own wallet.
func SignTake(privKeyHex string, network config.Network, recipient common.Address) (string, common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return "", common.Address{}, fmt.Errorf("invalid take key: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	contract := common.HexToAddress(network.SBTContract)

	typedData := apitypes.TypedData{
		Types:       signatureTypes,
		PrimaryType: "Agreement",
		Domain:      typedDataDomain(network, contract),
		Message: apitypes.TypedDataMessage{
			"active":  recipient.Hex(),
			"passive": from.Hex(),
		},
	}

	sig, err := signTypedData(typedData, key)
	if err != nil {
		return "", common.Address{}, err
	}
	return sig, from, nil
}

// SignMintMessage signs MintMessage{owner, tokenIndex, message} with the
// backend message key.
func SignMintMessage(privKeyHex string, network config.Network, owner common.Address, tokenID *big.Int, messageHash common.Hash) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid message key: %w", err)
	}
	contract := common.HexToAddress(network.SBTContract)

	typedData := apitypes.TypedData{
		Types:       signatureTypes,
		PrimaryType: "MintMessage",
		Domain:      typedDataDomain(network, contract),
		Message: apitypes.TypedDataMessage{
			"owner":      owner.Hex(),
			"tokenIndex": tokenID.String(),
			"message":    messageHash.Hex(),
		},
	}

	return signTypedData(typedData, key)
}

func signTypedData(typedData apitypes.TypedData, key *ecdsa.PrivateKey) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("sign typed data: %w", err)
	}
	// Contracts expect v as 27/28.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
