package transactionBuilder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/envelope"
	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	TransferGasLimit = 21_000
)

// FallbackGasTipCap is used when the node does not support eth_maxPriorityFeePerGas
var FallbackGasTipCap = big.NewInt(1_500_000_000)

// IExecutionClient is the subset of the execution JSON-RPC API needed to fill a transaction
type IExecutionClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

var _ IExecutionClient = (*ethclient.Client)(nil)

// TransactionRequest is the caller-controlled part of a transaction. A zero Gas is estimated.
type TransactionRequest struct {
	To    common.Address
	Data  []byte
	Value *big.Int
	Gas   uint64
}

type BuilderConfig struct {
	Client IExecutionClient
	Signer authSigner.IHashSigner
	Logger *zap.Logger
}

// Builder fills fee, nonce and gas fields from the execution node and signs the result
type Builder struct {
	client IExecutionClient
	signer authSigner.IHashSigner
	logger *zap.Logger
}

func NewBuilder(cfg *BuilderConfig) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("execution client is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Builder{
		client: cfg.Client,
		signer: cfg.Signer,
		logger: cfg.Logger,
	}, nil
}

// From returns the address transactions are sent from
func (b *Builder) From() common.Address {
	return b.signer.Address()
}

// SelfTransferRequest returns a 1 wei transfer from the signer to itself
func (b *Builder) SelfTransferRequest() *TransactionRequest {
	return &TransactionRequest{
		To:    b.signer.Address(),
		Value: big.NewInt(1),
		Gas:   TransferGasLimit,
	}
}

// RequestFromRaw decodes a raw 0x-prefixed transaction and keeps its destination, input and value.
// Every other field is refilled for the signer.
func RequestFromRaw(rawHex string) (*TransactionRequest, error) {
	tx, err := envelope.DecodeHex(rawHex)
	if err != nil {
		return nil, err
	}
	to, err := envelope.RequireDestination(tx)
	if err != nil {
		return nil, err
	}
	return &TransactionRequest{
		To:    to,
		Data:  tx.Data(),
		Value: tx.Value(),
	}, nil
}

// FillAndSign builds an EIP-1559 transaction for req and signs it
func (b *Builder) FillAndSign(ctx context.Context, req *TransactionRequest) (*types.Transaction, error) {
	if req == nil {
		return nil, preconfErrors.NewPreconditionError(nil, "transaction request is nil")
	}
	from := b.signer.Address()

	chainId, err := b.client.ChainID(ctx)
	if err != nil {
		return nil, preconfErrors.NewNetworkError(err, "failed to get chain ID")
	}

	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, preconfErrors.NewNetworkError(err, "failed to get nonce")
	}

	gasTipCap, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		b.logger.Sugar().Warnw("Cannot get gasTipCap, using fallback",
			"error", err,
			"fallback", FallbackGasTipCap.String(),
		)
		gasTipCap = new(big.Int).Set(FallbackGasTipCap)
	}

	header, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, preconfErrors.NewNetworkError(err, "failed to get latest block header")
	}
	if header.BaseFee == nil {
		return nil, preconfErrors.NewPreconditionError(nil, "latest block %s has no base fee", header.Number)
	}

	// basefee * 2 + tip
	gasFeeCap := new(big.Int).Add(new(big.Int).Mul(header.BaseFee, big.NewInt(2)), gasTipCap)

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := req.Gas
	if gasLimit == 0 {
		to := req.To
		gasLimit, err = b.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      from,
			To:        &to,
			GasTipCap: gasTipCap,
			GasFeeCap: gasFeeCap,
			Value:     value,
			Data:      req.Data,
		})
		if err != nil {
			return nil, preconfErrors.NewNetworkError(err, "failed to estimate gas")
		}
	}

	to := req.To
	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainId,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	txSigner := types.LatestSignerForChainID(chainId)
	sig, err := b.signer.SignHash(ctx, txSigner.Hash(unsigned))
	if err != nil {
		return nil, preconfErrors.NewSigningError(err, "failed to sign transaction")
	}
	signed, err := unsigned.WithSignature(txSigner, sig)
	if err != nil {
		return nil, preconfErrors.NewSigningError(err, "failed to attach transaction signature")
	}

	b.logger.Sugar().Infow("Built transaction",
		"tx_hash", signed.Hash().Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
		"nonce", nonce,
		"gas_limit", gasLimit,
		"max_priority_fee_per_gas", gasTipCap.String(),
		"max_fee_per_gas", gasFeeCap.String(),
		"base_fee", header.BaseFee.String(),
	)
	return signed, nil
}
