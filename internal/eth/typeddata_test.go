package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/sbt-migration/backend/internal/config"
)

var testNetwork = config.Network{
	ChainID:         68854,
	SBTContract:     "0x1111111111111111111111111111111111111111",
	ContractName:    "MigrationSbt",
	ContractVersion: "1",
}

func recoverTyped(t *testing.T, typedData apitypes.TypedData, sigHex string) common.Address {
	t.Helper()
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != crypto.SignatureLength {
		t.Fatalf("signature length = %d", len(sig))
	}
	sig[64] -= 27
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		t.Fatal(err)
	}
	return crypto.PubkeyToAddress(*pub)
}

func TestSignTake_RecoversSigner(t *testing.T) {
	key, _ := crypto.HexToECDSA(testKeyHex)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")

	sig, from, err := SignTake(testKeyHex, testNetwork, recipient)
	if err != nil {
		t.Fatal(err)
	}
	if from != signer {
		t.Errorf("from = %s, want %s", from, signer)
	}

	typedData := apitypes.TypedData{
		Types:       signatureTypes,
		PrimaryType: "Agreement",
		Domain:      typedDataDomain(testNetwork, common.HexToAddress(testNetwork.SBTContract)),
		Message: apitypes.TypedDataMessage{
			"active":  recipient.Hex(),
			"passive": signer.Hex(),
		},
	}
	if got := recoverTyped(t, typedData, sig); got != signer {
		t.Errorf("recovered = %s, want %s", got, signer)
	}
}

func TestSignTake_RecipientBound(t *testing.T) {
	recipientA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipientB := common.HexToAddress("0x3333333333333333333333333333333333333333")

	sigA, _, err := SignTake(testKeyHex, testNetwork, recipientA)
	if err != nil {
		t.Fatal(err)
	}
	sigB, _, err := SignTake(testKeyHex, testNetwork, recipientB)
	if err != nil {
		t.Fatal(err)
	}
	if sigA == sigB {
		t.Fatal("signatures for different recipients must differ")
	}
}

func TestSignMintMessage_RecoversSigner(t *testing.T) {
	key, _ := crypto.HexToECDSA(testKeyHex)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	tokenID := big.NewInt(42)
	messageHash := ChatMessageHash(owner, "hello badge", 1_700_000_000)

	sig, err := SignMintMessage(testKeyHex, testNetwork, owner, tokenID, messageHash)
	if err != nil {
		t.Fatal(err)
	}

	typedData := apitypes.TypedData{
		Types:       signatureTypes,
		PrimaryType: "MintMessage",
		Domain:      typedDataDomain(testNetwork, common.HexToAddress(testNetwork.SBTContract)),
		Message: apitypes.TypedDataMessage{
			"owner":      owner.Hex(),
			"tokenIndex": tokenID.String(),
			"message":    messageHash.Hex(),
		},
	}
	if got := recoverTyped(t, typedData, sig); got != signer {
		t.Errorf("recovered = %s, want %s", got, signer)
	}
}

func TestSignTake_BadKey(t *testing.T) {
	if _, _, err := SignTake("not-a-key", testNetwork, common.Address{}); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestChatMessageHash(t *testing.T) {
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")

	h1 := ChatMessageHash(owner, "hello", 1_700_000_000)
	h2 := ChatMessageHash(owner, "hello", 1_700_000_000)
	if h1 != h2 {
		t.Error("hash must be deterministic for identical inputs")
	}

	if ChatMessageHash(owner, "hello", 1_700_000_001) == h1 {
		t.Error("epoch must be part of the hash input")
	}
	if ChatMessageHash(owner, "hullo", 1_700_000_000) == h1 {
		t.Error("message must be part of the hash input")
	}

	other := common.HexToAddress("0x5555555555555555555555555555555555555555")
	if ChatMessageHash(other, "hello", 1_700_000_000) == h1 {
		t.Error("owner must be part of the hash input")
	}
}

func TestTypedDataDomain(t *testing.T) {
	contract := common.HexToAddress(testNetwork.SBTContract)
	domain := typedDataDomain(testNetwork, contract)

	if domain.Name != "MigrationSbt" || domain.Version != "1" {
		t.Errorf("domain = %+v", domain)
	}
	if (*big.Int)(domain.ChainId).Int64() != 68854 {
		t.Errorf("chain id = %v", domain.ChainId)
	}
}
