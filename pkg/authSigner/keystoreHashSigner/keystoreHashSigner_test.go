package keystoreHashSigner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Layr-Labs/preconf-sender-go/internal/tests"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTestKeystore(t *testing.T, password string) string {
	key, err := crypto.HexToECDSA(tests.TestPrivateKeyHex)
	require.NoError(t, err)

	keyJson, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, password, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyJson, 0600))
	return path
}

func TestNewKeystoreHashSigner(t *testing.T) {
	path := writeTestKeystore(t, "hunter2")

	s, err := NewKeystoreHashSigner(path, "hunter2", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(tests.TestAddressHex), s.Address())
}

func TestNewKeystoreHashSigner_Errors(t *testing.T) {
	path := writeTestKeystore(t, "hunter2")

	t.Run("wrong password", func(t *testing.T) {
		_, err := NewKeystoreHashSigner(path, "wrong", zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decrypt keystore")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewKeystoreHashSigner(filepath.Join(t.TempDir(), "missing.json"), "hunter2", zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read keystore file")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewKeystoreHashSigner("", "hunter2", zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keystore path is required")
	})
}
