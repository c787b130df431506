package awsKmsHashSigner

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"

	"github.com/Layr-Labs/preconf-sender-go/internal/tests"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	oidEcPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// fakeKms signs locally and answers in the DER formats KMS uses
type fakeKms struct {
	key      *ecdsa.PrivateKey
	signKey  *ecdsa.PrivateKey
	highS    bool
	pubErr   error
	requests []*kms.SignInput
}

func (f *fakeKms) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	if f.pubErr != nil {
		return nil, f.pubErr
	}
	pub := crypto.FromECDSAPub(&f.key.PublicKey)
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{Algorithm: oidEcPublicKey, Parameters: oidSecp256k1},
		PublicKey:       asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{KeyId: params.KeyId, PublicKey: der}, nil
}

func (f *fakeKms) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	f.requests = append(f.requests, params)

	key := f.key
	if f.signKey != nil {
		key = f.signKey
	}
	sig, err := crypto.Sign(params.Message, key)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[0:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if f.highS {
		s = new(big.Int).Sub(secp256k1N, s)
	}
	der, err := asn1.Marshal(struct {
		R *big.Int
		S *big.Int
	}{r, s})
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{KeyId: params.KeyId, Signature: der}, nil
}

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(tests.TestPrivateKeyHex)
	require.NoError(t, err)
	return key
}

func TestAwsKmsHashSigner_SignHash(t *testing.T) {
	key := newTestKey(t)
	digest := crypto.Keccak256Hash([]byte("inclusion"))
	expected, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	for _, highS := range []bool{false, true} {
		t.Run(fmt.Sprintf("highS=%v", highS), func(t *testing.T) {
			client := &fakeKms{key: key, highS: highS}
			signer, err := NewAwsKmsHashSigner(context.Background(), client, "alias/preconf", zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(tests.TestAddressHex), signer.Address())

			sig, err := signer.SignHash(context.Background(), digest)
			require.NoError(t, err)
			assert.Equal(t, expected, sig)

			require.Len(t, client.requests, 1)
			assert.Equal(t, types.MessageTypeDigest, client.requests[0].MessageType)
			assert.Equal(t, types.SigningAlgorithmSpecEcdsaSha256, client.requests[0].SigningAlgorithm)
			assert.Equal(t, "alias/preconf", *client.requests[0].KeyId)
		})
	}
}

func TestAwsKmsHashSigner_SignInclusion(t *testing.T) {
	signer, err := NewAwsKmsHashSigner(context.Background(), &fakeKms{key: newTestKey(t)}, "key", zaptest.NewLogger(t))
	require.NoError(t, err)

	hashes := []common.Hash{common.HexToHash("0xabc")}
	token, err := authSigner.SignInclusion(context.Background(), hashes, 101, signer)
	require.NoError(t, err)

	recovered, err := authSigner.RecoverInclusionSigner(hashes, 101, token)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestAwsKmsHashSigner_Errors(t *testing.T) {
	key := newTestKey(t)

	t.Run("public key unavailable", func(t *testing.T) {
		_, err := NewAwsKmsHashSigner(context.Background(), &fakeKms{key: key, pubErr: fmt.Errorf("AccessDenied")}, "key", zaptest.NewLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AccessDenied")
	})

	t.Run("missing key id", func(t *testing.T) {
		_, err := NewAwsKmsHashSigner(context.Background(), &fakeKms{key: key}, "", zaptest.NewLogger(t))
		require.Error(t, err)
	})

	t.Run("signature from another key", func(t *testing.T) {
		other, err := crypto.GenerateKey()
		require.NoError(t, err)

		signer, err := NewAwsKmsHashSigner(context.Background(), &fakeKms{key: key, signKey: other}, "key", zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = signer.SignHash(context.Background(), common.HexToHash("0x01"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not determine recovery ID")
	})
}
