package tests

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/holiman/uint256"
)

// Well-known development account (anvil/hardhat account 0). Never holds real funds.
const (
	TestPrivateKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	TestAddressHex    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// TestChainId is the holesky chain id, where the relays under test run
var TestChainId = big.NewInt(17000)

// NewSignedTransferTx returns a deterministic, signed EIP-1559 transfer from the test account
func NewSignedTransferTx(nonce uint64, to common.Address, data []byte) (*types.Transaction, error) {
	key, err := crypto.HexToECDSA(TestPrivateKeyHex)
	if err != nil {
		return nil, err
	}
	return types.SignNewTx(key, types.LatestSignerForChainID(TestChainId), &types.DynamicFeeTx{
		ChainID:   TestChainId,
		Nonce:     nonce,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(2_000_000_000),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(1),
		Data:      data,
	})
}

// NewSignedContractCreationTx returns a signed transaction with no destination address
func NewSignedContractCreationTx(nonce uint64) (*types.Transaction, error) {
	key, err := crypto.HexToECDSA(TestPrivateKeyHex)
	if err != nil {
		return nil, err
	}
	return types.SignNewTx(key, types.LatestSignerForChainID(TestChainId), &types.DynamicFeeTx{
		ChainID:   TestChainId,
		Nonce:     nonce,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(2_000_000_000),
		Gas:       100_000,
		Value:     big.NewInt(0),
		Data:      common.FromHex("0x6080604052"),
	})
}

// NewSignedBlobTx returns a signed EIP-4844 transaction carrying a one-blob sidecar
func NewSignedBlobTx(nonce uint64, to common.Address) (*types.Transaction, error) {
	key, err := crypto.HexToECDSA(TestPrivateKeyHex)
	if err != nil {
		return nil, err
	}

	var blob kzg4844.Blob
	blob[0] = 0x01
	sidecar := types.NewBlobTxSidecar(types.BlobSidecarVersion0,
		[]kzg4844.Blob{blob},
		[]kzg4844.Commitment{{0x02}},
		[]kzg4844.Proof{{0x03}},
	)

	return types.SignNewTx(key, types.LatestSignerForChainID(TestChainId), &types.BlobTx{
		ChainID:    uint256.MustFromBig(TestChainId),
		Nonce:      nonce,
		GasTipCap:  uint256.NewInt(1_000_000_000),
		GasFeeCap:  uint256.NewInt(2_000_000_000),
		Gas:        21_000,
		To:         to,
		Value:      uint256.NewInt(0),
		BlobFeeCap: uint256.NewInt(1_000_000_000),
		BlobHashes: sidecar.BlobHashes(),
		Sidecar:    sidecar,
	})
}
