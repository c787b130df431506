// Package authSigner builds the inclusion authentication token sent to Bolt-style relays.
//
// The signed digest is keccak256(txHash_0 || ... || txHash_n || le64(slot)). The digest is
// signed as-is, with no EIP-191 prefix and no second hash, and rendered as
// "<checksummed address>:0x<hex r||s||v>" with v in {27, 28}. Relays recover the signer
// from exactly this layout, so none of it may change.
package authSigner

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// IHashSigner signs 32 byte digests with a secp256k1 key it never exposes
type IHashSigner interface {
	// Address returns the address derived from the signing key
	Address() common.Address

	// SignHash signs digest directly and returns a 65 byte [R || S || V] signature, V in {0, 1}
	SignHash(ctx context.Context, digest common.Hash) ([]byte, error)
}

// AuthSignature is the "<address>:0x<signature>" token carried in the x-bolt-signature header
type AuthSignature string

func (a AuthSignature) String() string {
	return string(a)
}

// InclusionPreimage returns the bytes hashed into the inclusion digest
func InclusionPreimage(txHashes []common.Hash, targetSlot uint64) []byte {
	buf := make([]byte, 0, len(txHashes)*common.HashLength+8)
	for _, h := range txHashes {
		buf = append(buf, h.Bytes()...)
	}
	return binary.LittleEndian.AppendUint64(buf, targetSlot)
}

// InclusionDigest returns keccak256 of the inclusion preimage
func InclusionDigest(txHashes []common.Hash, targetSlot uint64) common.Hash {
	return crypto.Keccak256Hash(InclusionPreimage(txHashes, targetSlot))
}

// SignInclusion signs the inclusion digest for txHashes and targetSlot
func SignInclusion(ctx context.Context, txHashes []common.Hash, targetSlot uint64, signer IHashSigner) (AuthSignature, error) {
	if signer == nil {
		return "", preconfErrors.NewSigningError(nil, "signer is required")
	}

	digest := InclusionDigest(txHashes, targetSlot)

	sig, err := signer.SignHash(ctx, digest)
	if err != nil {
		return "", preconfErrors.NewSigningError(err, "failed to sign inclusion digest")
	}
	if len(sig) != crypto.SignatureLength {
		return "", preconfErrors.NewSigningError(nil, "signer returned %d bytes, expected %d", len(sig), crypto.SignatureLength)
	}

	out := make([]byte, crypto.SignatureLength)
	copy(out, sig)
	if out[crypto.RecoveryIDOffset] < 27 {
		out[crypto.RecoveryIDOffset] += 27
	}

	return FormatAuthSignature(signer.Address(), out), nil
}

// FormatAuthSignature renders address and signature bytes as an AuthSignature
func FormatAuthSignature(address common.Address, sig []byte) AuthSignature {
	return AuthSignature(fmt.Sprintf("%s:%s", address.Hex(), hexutil.Encode(sig)))
}

// ParseAuthSignature splits an AuthSignature into its address and signature bytes
func ParseAuthSignature(token AuthSignature) (common.Address, []byte, error) {
	addrPart, sigPart, ok := strings.Cut(token.String(), ":")
	if !ok {
		return common.Address{}, nil, fmt.Errorf("auth signature has no ':' separator")
	}
	if !common.IsHexAddress(addrPart) {
		return common.Address{}, nil, fmt.Errorf("invalid signer address %q", addrPart)
	}
	sig, err := hexutil.Decode(sigPart)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, nil, fmt.Errorf("signature is %d bytes, expected %d", len(sig), crypto.SignatureLength)
	}
	return common.HexToAddress(addrPart), sig, nil
}

// RecoverInclusionSigner recovers the address that produced token over txHashes and targetSlot,
// the same check a relay performs
func RecoverInclusionSigner(txHashes []common.Hash, targetSlot uint64, token AuthSignature) (common.Address, error) {
	_, sig, err := ParseAuthSignature(token)
	if err != nil {
		return common.Address{}, err
	}

	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	digest := InclusionDigest(txHashes, targetSlot)
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
