package envelope

import (
	"math/big"

	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// ITransactionEnvelope is a signed, ready to broadcast transaction.
// *types.Transaction satisfies it.
type ITransactionEnvelope interface {
	// Hash returns the transaction hash
	Hash() common.Hash

	// To returns the destination address, or nil for contract creation
	To() *common.Address

	Data() []byte

	Value() *big.Int

	// MarshalBinary returns the canonical EIP-2718 network encoding
	MarshalBinary() ([]byte, error)
}

var _ ITransactionEnvelope = (*types.Transaction)(nil)

// IsNil reports whether env is nil, including a nil *types.Transaction held in the interface
func IsNil(env ITransactionEnvelope) bool {
	if env == nil {
		return true
	}
	tx, ok := env.(*types.Transaction)
	return ok && tx == nil
}

// ToRawBytes returns the envelope's canonical network encoding
func ToRawBytes(env ITransactionEnvelope) (hexutil.Bytes, error) {
	if IsNil(env) {
		return nil, preconfErrors.NewPreconditionError(nil, "transaction envelope is nil")
	}
	raw, err := env.MarshalBinary()
	if err != nil {
		return nil, preconfErrors.NewPreconditionError(err, "failed to encode transaction %s", env.Hash().Hex())
	}
	return raw, nil
}

// Decode parses raw network-encoded bytes into a transaction
func Decode(raw []byte) (*types.Transaction, error) {
	if len(raw) == 0 {
		return nil, preconfErrors.NewDecodeError(nil, "raw transaction is empty")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, preconfErrors.NewDecodeError(err, "failed to decode raw transaction")
	}
	return tx, nil
}

// DecodeHex parses a 0x-prefixed hex string into a transaction
func DecodeHex(rawHex string) (*types.Transaction, error) {
	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, preconfErrors.NewDecodeError(err, "raw transaction is not valid 0x-prefixed hex")
	}
	return Decode(raw)
}

// RequireDestination returns the envelope's destination, failing when it has none
func RequireDestination(env ITransactionEnvelope) (common.Address, error) {
	if IsNil(env) {
		return common.Address{}, preconfErrors.NewPreconditionError(nil, "transaction envelope is nil")
	}
	to := env.To()
	if to == nil {
		return common.Address{}, preconfErrors.NewPreconditionError(nil, "transaction %s is missing the to field", env.Hash().Hex())
	}
	return *to, nil
}

// Hashes returns the hashes of envs in order
func Hashes(envs ...ITransactionEnvelope) []common.Hash {
	hashes := make([]common.Hash, 0, len(envs))
	for _, env := range envs {
		hashes = append(hashes, env.Hash())
	}
	return hashes
}
