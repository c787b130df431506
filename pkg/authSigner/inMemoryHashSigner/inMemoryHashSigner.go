package inMemoryHashSigner

import (
	"context"
	"fmt"
	"strings"

	"github.com/Layr-Labs/crypto-libs/pkg/ecdsa"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

type InMemoryHashSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ authSigner.IHashSigner = (*InMemoryHashSigner)(nil)

// NewInMemoryHashSigner loads a hex encoded secp256k1 private key, with or without 0x
func NewInMemoryHashSigner(privateKeyHex string, logger *zap.Logger) (*InMemoryHashSigner, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	key, err := ecdsa.NewPrivateKeyFromHexString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return newInMemoryHashSigner(key, logger)
}

// NewInMemoryHashSignerFromBytes loads a raw 32 byte secp256k1 private key
func NewInMemoryHashSignerFromBytes(privateKey []byte, logger *zap.Logger) (*InMemoryHashSigner, error) {
	key, err := ecdsa.NewPrivateKeyFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return newInMemoryHashSigner(key, logger)
}

func newInMemoryHashSigner(key *ecdsa.PrivateKey, logger *zap.Logger) (*InMemoryHashSigner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	address, err := key.DeriveAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}
	return &InMemoryHashSigner{
		logger:     logger,
		privateKey: key,
		address:    address,
	}, nil
}

func (s *InMemoryHashSigner) Address() common.Address {
	return s.address
}

// SignHash returns r || s || v over digest with v in {0, 1}
func (s *InMemoryHashSigner) SignHash(ctx context.Context, digest common.Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signature, err := s.privateKey.Sign(digest.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}

	// crypto-libs reports v as 27 or 28
	sig := signature.Bytes()
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	s.logger.Sugar().Debugw("Signed digest",
		"signer", s.address.Hex(),
		"digest", digest.Hex(),
	)
	return sig, nil
}
