package keystoreHashSigner

import (
	"fmt"
	"os"

	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner/inMemoryHashSigner"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// NewKeystoreHashSigner decrypts a go-ethereum JSON keystore file and signs with the key in memory
func NewKeystoreHashSigner(path string, password string, logger *zap.Logger) (*inMemoryHashSigner.InMemoryHashSigner, error) {
	if path == "" {
		return nil, fmt.Errorf("keystore path is required")
	}
	keyJson, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}
	return NewKeystoreHashSignerFromJson(keyJson, password, logger)
}

func NewKeystoreHashSignerFromJson(keyJson []byte, password string, logger *zap.Logger) (*inMemoryHashSigner.InMemoryHashSigner, error) {
	key, err := keystore.DecryptKey(keyJson, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	if logger != nil {
		logger.Sugar().Infow("Loaded keystore signer", "address", key.Address.Hex())
	}
	return inMemoryHashSigner.NewInMemoryHashSignerFromBytes(crypto.FromECDSA(key.PrivateKey), logger)
}
