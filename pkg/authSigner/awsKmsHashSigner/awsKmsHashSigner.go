package awsKmsHashSigner

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IKmsClient is the subset of the AWS KMS API used for signing
type IKmsClient interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

var _ IKmsClient = (*kms.Client)(nil)

// AwsKmsHashSigner signs digests with an ECC_SECG_P256K1 key held in AWS KMS
type AwsKmsHashSigner struct {
	logger    *zap.Logger
	kmsClient IKmsClient
	keyId     string
	publicKey *ecdsa.PublicKey
	address   common.Address
}

var _ authSigner.IHashSigner = (*AwsKmsHashSigner)(nil)

// NewAwsKmsHashSignerFromConfig creates a KMS client from awsCfg and loads keyId
func NewAwsKmsHashSignerFromConfig(ctx context.Context, awsCfg aws.Config, keyId string, logger *zap.Logger) (*AwsKmsHashSigner, error) {
	return NewAwsKmsHashSigner(ctx, kms.NewFromConfig(awsCfg), keyId, logger)
}

// NewAwsKmsHashSigner fetches the public key of keyId once and derives the signer address
func NewAwsKmsHashSigner(ctx context.Context, kmsClient IKmsClient, keyId string, logger *zap.Logger) (*AwsKmsHashSigner, error) {
	if kmsClient == nil {
		return nil, fmt.Errorf("KMS client is required")
	}
	if keyId == "" {
		return nil, fmt.Errorf("KMS key ID is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	out, err := kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(keyId),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for KMS key %s", keyId)
	}

	publicKey, err := parseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for KMS key %s", keyId)
	}

	address := crypto.PubkeyToAddress(*publicKey)
	logger.Sugar().Infow("Loaded KMS signing key", "key_id", keyId, "address", address.Hex())

	return &AwsKmsHashSigner{
		logger:    logger,
		kmsClient: kmsClient,
		keyId:     keyId,
		publicKey: publicKey,
		address:   address,
	}, nil
}

func (s *AwsKmsHashSigner) Address() common.Address {
	return s.address
}

// SignHash asks KMS to sign digest and returns r || s || v with a low s and v in {0, 1}
func (s *AwsKmsHashSigner) SignHash(ctx context.Context, digest common.Hash) ([]byte, error) {
	out, err := s.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyId),
		Message:          digest.Bytes(),
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "KMS sign request failed for key %s", s.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(out.Signature, &sigAsn1); err != nil {
		return nil, fmt.Errorf("failed to parse KMS signature: %w", err)
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	sv := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	// Ethereum only accepts the lower half of the curve order for s
	if sv.Cmp(secp256k1HalfN) > 0 {
		sv = new(big.Int).Sub(secp256k1N, sv)
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[0:32])
	sv.FillBytes(sig[32:64])

	expected := crypto.FromECDSAPub(s.publicKey)
	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		sig[crypto.RecoveryIDOffset] = recoveryId
		recovered, err := crypto.Ecrecover(digest.Bytes(), sig)
		if err != nil {
			s.logger.Sugar().Debugw("Ecrecover failed", "recovery_id", recoveryId, "error", err)
			continue
		}
		if string(recovered) == string(expected) {
			s.logger.Sugar().Debugw("Signed digest", "signer", s.address.Hex(), "digest", digest.Hex())
			return sig, nil
		}
	}

	return nil, fmt.Errorf("could not determine recovery ID for KMS signature")
}

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// parseECDSAPublicKey parses the DER SubjectPublicKeyInfo returned by KMS
func parseECDSAPublicKey(derBytes []byte) (*ecdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}
