package eth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const siweSuffix = " wants you to sign in with your Ethereum account:"

// AuthMessage is the parsed form of an EIP-4361 challenge.
type AuthMessage struct {
	Domain   string
	Address  common.Address
	URI      string
	Version  string
	ChainID  int64
	Nonce    string
	IssuedAt string
}

// ContractVerifier resolves signatures that plain key recovery cannot:
// contract wallets answering EIP-1271 isValidSignature over RPC.
type ContractVerifier interface {
	ValidSignature(ctx context.Context, wallet common.Address, digest common.Hash, signature []byte) (bool, error)
}

// BuildAuthMessage formats the sign-in challenge. The formatting is
// deterministic: verification signs over the exact string returned here.
func BuildAuthMessage(address common.Address, chainID int64, domain, uri, nonce string) string {
	return fmt.Sprintf("%s%s\n%s\n\n\nURI: %s\nVersion: 1\nChain ID: %d\nNonce: %s\nIssued At: %s",
		domain, siweSuffix,
		address.Hex(),
		uri,
		chainID,
		nonce,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// ParseAuthMessage extracts the fields the server must check (domain,
// address, nonce) from a returned challenge. Any structural deviation is an
// error; verification fails closed on unparseable messages.
func ParseAuthMessage(message string) (*AuthMessage, error) {
	lines := strings.Split(message, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("message too short")
	}
	if !strings.HasSuffix(lines[0], siweSuffix) {
		return nil, fmt.Errorf("missing sign-in preamble")
	}

	m := &AuthMessage{Domain: strings.TrimSuffix(lines[0], siweSuffix)}

	if !common.IsHexAddress(strings.TrimSpace(lines[1])) {
		return nil, fmt.Errorf("invalid address line")
	}
	m.Address = common.HexToAddress(strings.TrimSpace(lines[1]))

	for _, line := range lines[2:] {
		switch {
		case strings.HasPrefix(line, "URI: "):
			m.URI = strings.TrimPrefix(line, "URI: ")
		case strings.HasPrefix(line, "Version: "):
			m.Version = strings.TrimPrefix(line, "Version: ")
		case strings.HasPrefix(line, "Chain ID: "):
			id, err := strconv.ParseInt(strings.TrimPrefix(line, "Chain ID: "), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid chain id: %w", err)
			}
			m.ChainID = id
		case strings.HasPrefix(line, "Nonce: "):
			m.Nonce = strings.TrimPrefix(line, "Nonce: ")
		case strings.HasPrefix(line, "Issued At: "):
			m.IssuedAt = strings.TrimPrefix(line, "Issued At: ")
		}
	}

	if m.Nonce == "" {
		return nil, fmt.Errorf("nonce is missing")
	}
	return m, nil
}

// PersonalSignHash computes the EIP-191 digest wallets sign for plain text.
func PersonalSignHash(message string) common.Hash {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256Hash([]byte(prefixed))
}

// VerifyAuthSignature checks a signed challenge against the expected wallet.
// Key recovery is tried first; when it does not match and a ContractVerifier
// is supplied, the contract-wallet path (EIP-1271) is consulted over RPC.
// Returns false, never an error, on plain mismatches.
func VerifyAuthSignature(ctx context.Context, verifier ContractVerifier, address common.Address, message, signature string, allowedDomains []string) (bool, error) {
	parsed, err := ParseAuthMessage(message)
	if err != nil {
		return false, nil
	}
	if parsed.Address != address {
		return false, nil
	}
	if !domainAllowed(parsed.Domain, allowedDomains) {
		return false, nil
	}

	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false, nil
	}

	digest := PersonalSignHash(message)

	// crypto.SigToPub expects the recovery id in the last byte as 0/1.
	recoverable := make([]byte, crypto.SignatureLength)
	copy(recoverable, sig)
	if recoverable[64] >= 27 {
		recoverable[64] -= 27
	}

	if pub, err := crypto.SigToPub(digest.Bytes(), recoverable); err == nil {
		if crypto.PubkeyToAddress(*pub) == address {
			return true, nil
		}
	}

	if verifier != nil {
		return verifier.ValidSignature(ctx, address, digest, sig)
	}
	return false, nil
}

func domainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, d := range allowed {
		if d == domain {
			return true
		}
	}
	return false
}
