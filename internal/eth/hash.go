package eth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChatMessageHash computes keccak256(abi.encodePacked(owner, message, epoch)),
// the key the SBT contract stores for a minted message. The epoch is part of
// the hash input, so the hash is only reproducible at the second it was
// taken; callers must persist the returned value instead of re-deriving it.
func ChatMessageHash(owner common.Address, message string, epoch int64) common.Hash {
	packed := make([]byte, 0, common.AddressLength+len(message)+32)
	packed = append(packed, owner.Bytes()...)
	packed = append(packed, []byte(message)...)
	packed = append(packed, common.LeftPadBytes(big.NewInt(epoch).Bytes(), 32)...)
	return crypto.Keccak256Hash(packed)
}
