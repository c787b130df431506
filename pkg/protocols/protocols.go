package protocols

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/config"
	"github.com/Layr-Labs/preconf-sender-go/pkg/envelope"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// IInclusionSender submits one transaction for inclusion in a target slot
type IInclusionSender interface {
	// Protocol returns the relay protocol this sender speaks
	Protocol() config.Protocol

	// SendInclusion submits env for targetSlot and returns the raw relay response
	SendInclusion(ctx context.Context, targetSlot uint64, env envelope.ITransactionEnvelope) (*InclusionResponse, error)
}

// SenderOptions carries everything any adapter may need. Signer is ignored by Ethgas,
// ReplacementUuid is ignored by Bolt and Luban.
type SenderOptions struct {
	Url             string
	Signer          authSigner.IHashSigner
	ReplacementUuid func() string
	HttpClient      *http.Client
	Logger          *zap.Logger
}

// NewInclusionSender returns the adapter for protocol
func NewInclusionSender(protocol config.Protocol, opts *SenderOptions) (IInclusionSender, error) {
	if opts == nil {
		return nil, fmt.Errorf("sender options cannot be nil")
	}

	switch protocol {
	case config.Protocol_Bolt:
		return NewBoltInclusionSender(opts.Url, opts.Signer, opts.HttpClient, opts.Logger)
	case config.Protocol_Luban:
		return NewLubanInclusionSender(opts.Url, opts.Signer, opts.HttpClient, opts.Logger)
	case config.Protocol_Ethgas:
		return NewEthgasInclusionSender(&EthgasSenderConfig{
			BaseUrl:         opts.Url,
			ReplacementUuid: opts.ReplacementUuid,
			HttpClient:      opts.HttpClient,
			Logger:          opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
}

// encodeSingle returns the network encoding of env. For blob transactions this
// includes the sidecar, which env.Hash() does not commit to.
func encodeSingle(env envelope.ITransactionEnvelope) (hexutil.Bytes, error) {
	return envelope.ToRawBytes(env)
}
