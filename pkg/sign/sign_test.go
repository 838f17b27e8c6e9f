package sign_test

import (
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainkit-labs/bcos-sdk/pkg/sign"
)

const keyOneHex = "0000000000000000000000000000000000000000000000000000000000000001"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestHash(t *testing.T) {
	tcs := []struct {
		name   string
		t      sign.CryptoType
		input  string
		expect string
	}{
		{name: "keccak", t: sign.CryptoStandard, input: "nanjingboy", expect: "19fa07abe78276c06a4020e2db1604f1ee14b2ebe672d29f51c1c995890a7518"},
		{name: "sm3", t: sign.CryptoNational, input: "nanjingboy", expect: "0a7e6ffe38f2f44a895b7652f56317064fbfbe2d22200abf46b22966b63c7fa4"},
		{name: "sm3 abc", t: sign.CryptoNational, input: "abc", expect: "66c7f0f462eeedd9d1f2d46bdc10e4e24167c4875cf2f7a2297da02b8f4ba8e0"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, hex.EncodeToString(tc.t.Hash([]byte(tc.input))))
		})
	}

	t.Run("multi part", func(t *testing.T) {
		assert.Equal(t, sign.CryptoNational.Hash([]byte("nanjingboy")), sign.CryptoNational.Hash([]byte("nanjing"), []byte("boy")))
	})
}

func TestAddressDerivation(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		signer, err := sign.NewSigner(sign.CryptoStandard, mustHex(t, keyOneHex))
		require.NoError(t, err)

		// secp256k1 generator point
		assert.Equal(t,
			"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"+
				"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8",
			hex.EncodeToString(signer.PublicKey().Bytes()))
		assert.Equal(t, common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"), signer.Address())
		assert.Equal(t, sign.CryptoStandard, signer.CryptoType())
	})

	t.Run("national", func(t *testing.T) {
		signer, err := sign.NewSigner(sign.CryptoNational, mustHex(t, keyOneHex))
		require.NoError(t, err)

		// SM2 generator point
		pub := mustHex(t, "32c4ae2c1f1981195f9904466a39c9948fe30bbff2660be1715a4589334c74c7"+
			"bc3736a2f4f6779c59bdcee36b692153d0a9877cc62a474002df32e52139f0a0")
		assert.Equal(t, pub, signer.PublicKey().Bytes())
		assert.Equal(t, common.HexToAddress("0xe321dedcc72761be1bbf16159f679ffd98183a69"), signer.Address())
		assert.Equal(t, sign.CryptoNational, signer.CryptoType())
	})

	t.Run("rejects zero key", func(t *testing.T) {
		_, err := sign.NewSigner(sign.CryptoNational, make([]byte, 32))
		assert.Error(t, err)
		_, err = sign.NewSigner(sign.CryptoStandard, make([]byte, 32))
		assert.Error(t, err)
	})
}

func TestStandardSign(t *testing.T) {
	signer, err := sign.NewSigner(sign.CryptoStandard, mustHex(t, "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"))
	require.NoError(t, err)
	hash := sign.CryptoStandard.Hash([]byte("transaction"))

	sig, err := signer.Sign(hash)
	require.NoError(t, err)
	again, err := signer.Sign(hash)
	require.NoError(t, err)

	assert.Equal(t, sig, again)
	assert.Equal(t, sign.CryptoStandard, sig.Type())
	assert.Contains(t, []uint64{27, 28}, sig.RecoveryV())
	assert.True(t, signer.PublicKey().Verify(hash, sig))

	raw := append(append(sig.R[:], sig.S[:]...), byte(sig.RecoveryV()-27))
	pub, err := ethcrypto.SigToPub(hash, raw)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), ethcrypto.PubkeyToAddress(*pub))

	assert.False(t, signer.PublicKey().Verify(sign.CryptoStandard.Hash([]byte("other")), sig))
}

func TestNationalSign(t *testing.T) {
	signer, err := sign.NewSigner(sign.CryptoNational, mustHex(t, "3945208f7b2144b13f36e38ac6d39f95889393692860b51a42fb81ef4df7c5b8"))
	require.NoError(t, err)
	hash := sign.CryptoNational.Hash([]byte("transaction"))

	sig, err := signer.Sign(hash)
	require.NoError(t, err)

	assert.Equal(t, sign.CryptoNational, sig.Type())
	assert.Equal(t, signer.PublicKey().Bytes(), sig.V)
	assert.True(t, signer.PublicKey().Verify(hash, sig))
	assert.False(t, signer.PublicKey().Verify(sign.CryptoNational.Hash([]byte("other")), sig))
}

func writePEM(t *testing.T, blockType, derHex string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: mustHex(t, derHex)})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadSigner(t *testing.T) {
	key := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	trailer := "a00706052b8104000a"

	tcs := []struct {
		name      string
		t         sign.CryptoType
		blockType string
		der       string
		expectErr error
	}{
		{name: "sec1", t: sign.CryptoStandard, blockType: "EC PRIVATE KEY", der: "30740201010420" + key + trailer},
		{name: "pkcs8", t: sign.CryptoStandard, blockType: "PRIVATE KEY", der: "308184020100301006072a8648ce3d020106052b8104000a046d306b0201010420" + key + trailer},
		{name: "sm2 pkcs8", t: sign.CryptoNational, blockType: "PRIVATE KEY", der: "308187020100301306072a8648ce3d020106082a811ccf5501822d046d306b0201010420" + key + trailer},
		{name: "sm2 with sec1 body", t: sign.CryptoNational, blockType: "EC PRIVATE KEY", der: "30740201010420" + key + trailer, expectErr: sign.ErrUnsupportedKeyShape},
		{name: "truncated", t: sign.CryptoStandard, blockType: "EC PRIVATE KEY", der: "30740201010420" + key[:10], expectErr: sign.ErrUnsupportedKeyShape},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			signer, err := sign.LoadSigner(writePEM(t, tc.blockType, tc.der), tc.t)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)

			direct, err := sign.NewSigner(tc.t, mustHex(t, key))
			require.NoError(t, err)
			assert.Equal(t, direct.Address(), signer.Address())
		})
	}

	t.Run("not pem", func(t *testing.T) {
		_, err := sign.ParsePrivateKeyPEM([]byte("garbage"), sign.CryptoStandard)
		assert.ErrorIs(t, err, sign.ErrNoPEMBlock)
	})
}
