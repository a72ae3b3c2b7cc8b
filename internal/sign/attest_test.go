package sign

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testWinner = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
)

func TestNewRejectsBadKey(t *testing.T) {
	_, err := New("zz")
	require.Error(t, err)

	s, err := New("0x" + testKey)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, s.Address())
}

func TestAttestIsDeterministic(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	a, err := s.Attest("r1", testWinner)
	require.NoError(t, err)
	b, err := s.Attest("r1", testWinner)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := s.Attest("r2", testWinner)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestAttestRecoversToSignerAddress(t *testing.T) {
	s, err := New(testKey)
	require.NoError(t, err)

	sigHex, err := s.Attest("r1", testWinner)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sigHex, "0x"))

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	// Recover exactly what the pot contract's ecrecover would.
	msg := crypto.Keccak256(append([]byte("r1"), common.HexToAddress(testWinner).Bytes()...))
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	require.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}
