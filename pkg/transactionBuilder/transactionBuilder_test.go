package transactionBuilder

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/Layr-Labs/preconf-sender-go/internal/tests"
	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner/inMemoryHashSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeExecutionClient struct {
	chainId  *big.Int
	nonce    uint64
	tipCap   *big.Int
	tipErr   error
	baseFee  *big.Int
	gas      uint64
	gasErr   error
	estimate []ethereum.CallMsg
}

func (f *fakeExecutionClient) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainId, nil
}

func (f *fakeExecutionClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeExecutionClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if f.tipErr != nil {
		return nil, f.tipErr
	}
	return f.tipCap, nil
}

func (f *fakeExecutionClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1000), BaseFee: f.baseFee}, nil
}

func (f *fakeExecutionClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimate = append(f.estimate, msg)
	return f.gas, f.gasErr
}

func newFakeClient() *fakeExecutionClient {
	return &fakeExecutionClient{
		chainId: tests.TestChainId,
		nonce:   12,
		tipCap:  big.NewInt(2_000_000_000),
		baseFee: big.NewInt(10_000_000_000),
		gas:     50_000,
	}
}

func newTestBuilder(t *testing.T, client IExecutionClient) *Builder {
	l := zaptest.NewLogger(t)
	signer, err := inMemoryHashSigner.NewInMemoryHashSigner(tests.TestPrivateKeyHex, l)
	require.NoError(t, err)

	b, err := NewBuilder(&BuilderConfig{Client: client, Signer: signer, Logger: l})
	require.NoError(t, err)
	return b
}

func TestBuilder_FillAndSign_SelfTransfer(t *testing.T) {
	client := newFakeClient()
	b := newTestBuilder(t, client)

	req := b.SelfTransferRequest()
	assert.Equal(t, common.HexToAddress(tests.TestAddressHex), req.To)
	assert.Equal(t, uint64(TransferGasLimit), req.Gas)
	assert.Equal(t, int64(1), req.Value.Int64())

	tx, err := b.FillAndSign(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(12), tx.Nonce())
	assert.Equal(t, uint64(TransferGasLimit), tx.Gas())
	assert.Equal(t, tests.TestChainId.Uint64(), tx.ChainId().Uint64())
	assert.Equal(t, uint64(2_000_000_000), tx.GasTipCap().Uint64())
	assert.Equal(t, uint64(22_000_000_000), tx.GasFeeCap().Uint64())
	assert.Equal(t, req.To, *tx.To())
	assert.Empty(t, client.estimate)

	sender, err := types.Sender(types.LatestSignerForChainID(tests.TestChainId), tx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(tests.TestAddressHex), sender)
}

func TestBuilder_FillAndSign_EstimatesGasAndFallsBackOnTip(t *testing.T) {
	client := newFakeClient()
	client.tipErr = fmt.Errorf("method not found")
	b := newTestBuilder(t, client)

	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	tx, err := b.FillAndSign(context.Background(), &TransactionRequest{
		To:   to,
		Data: []byte{0xde, 0xad},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(50_000), tx.Gas())
	assert.Equal(t, FallbackGasTipCap.Uint64(), tx.GasTipCap().Uint64())
	assert.Equal(t, uint64(21_500_000_000), tx.GasFeeCap().Uint64())
	assert.Equal(t, int64(0), tx.Value().Int64())

	require.Len(t, client.estimate, 1)
	assert.Equal(t, to, *client.estimate[0].To)
	assert.Equal(t, b.From(), client.estimate[0].From)
	assert.Equal(t, []byte{0xde, 0xad}, client.estimate[0].Data)
}

func TestBuilder_FillAndSign_Errors(t *testing.T) {
	t.Run("no base fee", func(t *testing.T) {
		client := newFakeClient()
		client.baseFee = nil
		_, err := newTestBuilder(t, client).FillAndSign(context.Background(), &TransactionRequest{Gas: TransferGasLimit})
		require.Error(t, err)
		assert.True(t, errors.Is(err, preconfErrors.ErrPrecondition))
	})

	t.Run("estimate fails", func(t *testing.T) {
		client := newFakeClient()
		client.gasErr = fmt.Errorf("execution reverted")
		_, err := newTestBuilder(t, client).FillAndSign(context.Background(), &TransactionRequest{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, preconfErrors.ErrNetwork))
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := newTestBuilder(t, newFakeClient()).FillAndSign(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestRequestFromRaw(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx, err := tests.NewSignedTransferTx(5, to, []byte{0x01, 0x02})
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	req, err := RequestFromRaw(hexutil.Encode(raw))
	require.NoError(t, err)
	assert.Equal(t, to, req.To)
	assert.Equal(t, []byte{0x01, 0x02}, req.Data)
	assert.Equal(t, int64(1), req.Value.Int64())
	assert.Zero(t, req.Gas)

	creation, err := tests.NewSignedContractCreationTx(0)
	require.NoError(t, err)
	raw, err = creation.MarshalBinary()
	require.NoError(t, err)

	_, err = RequestFromRaw(hexutil.Encode(raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, preconfErrors.ErrPrecondition))

	_, err = RequestFromRaw("0xzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, preconfErrors.ErrDecode))
}

func TestNewBuilder_Validation(t *testing.T) {
	_, err := NewBuilder(nil)
	require.Error(t, err)

	_, err = NewBuilder(&BuilderConfig{Logger: zaptest.NewLogger(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution client is required")
}
