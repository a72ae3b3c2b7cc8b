package sign

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces payout attestations over (roomId, winnerAddress). The
// signature layout matches what the pot contract verifies on-chain:
// keccak256(abi.encodePacked(roomId, winner)) wrapped in the Ethereum
// personal-message prefix, recovery byte in {27, 28}.
type Signer struct {
	key *ecdsa.PrivateKey
}

// New builds a Signer from a hex-encoded secp256k1 private key.
func New(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address is the signer's on-chain address, published so the contract side
// can be configured against it.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Attest signs the (roomID, winner) pair and returns the 65-byte signature
// hex-encoded with 0x prefix.
func (s *Signer) Attest(roomID, winner string) (string, error) {
	msg := crypto.Keccak256(append([]byte(roomID), common.HexToAddress(winner).Bytes()...))
	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return "", err
	}
	// crypto.Sign yields v in {0, 1}; wallets and the contract's ecrecover
	// expect {27, 28}.
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
