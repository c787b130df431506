package protocols

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Layr-Labs/preconf-sender-go/pkg/config"
	"github.com/Layr-Labs/preconf-sender-go/pkg/envelope"
	"github.com/Layr-Labs/preconf-sender-go/pkg/transport"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FixedReplacementUuid always returns id. Ethgas then treats each call as a replacement
// of the same logical submission.
func FixedReplacementUuid(id string) func() string {
	return func() string {
		return id
	}
}

// FreshReplacementUuid returns a new random UUID on every call
func FreshReplacementUuid() string {
	return uuid.NewString()
}

// ResolveEthgasUrl resolves EthgasSendPath against base with RFC 3986 reference resolution.
// The path is absolute, so it replaces the whole base path and drops any query.
func ResolveEthgasUrl(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid Ethgas base URL: %w", err)
	}
	return u.ResolveReference(&url.URL{Path: EthgasSendPath}).String(), nil
}

type EthgasSenderConfig struct {
	BaseUrl string
	// ReplacementUuid supplies the idempotency token per request; defaults to the fixed placeholder
	ReplacementUuid func() string
	HttpClient      *http.Client
	Logger          *zap.Logger
}

// EthgasInclusionSender POSTs an unsigned inclusion preconf request to Ethgas
type EthgasInclusionSender struct {
	url             string
	replacementUuid func() string
	transport       *transport.Client
	logger          *zap.Logger
}

var _ IInclusionSender = (*EthgasInclusionSender)(nil)

// NewEthgasInclusionSender creates a new Ethgas inclusion sender
func NewEthgasInclusionSender(cfg *EthgasSenderConfig) (*EthgasInclusionSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseUrl == "" {
		return nil, fmt.Errorf("preconfer URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sendUrl, err := ResolveEthgasUrl(cfg.BaseUrl)
	if err != nil {
		return nil, err
	}

	replacementUuid := cfg.ReplacementUuid
	if replacementUuid == nil {
		replacementUuid = FixedReplacementUuid(config.DefaultEthgasReplacementUuid)
	}

	return &EthgasInclusionSender{
		url:             sendUrl,
		replacementUuid: replacementUuid,
		transport:       transport.NewClient(cfg.HttpClient, cfg.Logger),
		logger:          cfg.Logger,
	}, nil
}

func (s *EthgasInclusionSender) Protocol() config.Protocol {
	return config.Protocol_Ethgas
}

// Url returns the resolved submission URL
func (s *EthgasInclusionSender) Url() string {
	return s.url
}

// BuildRequest returns the Ethgas body for env in targetSlot
func (s *EthgasInclusionSender) BuildRequest(targetSlot uint64, env envelope.ITransactionEnvelope) (*EthgasRequest, error) {
	raw, err := encodeSingle(env)
	if err != nil {
		return nil, err
	}
	return &EthgasRequest{
		SlotNumber:      targetSlot,
		ReplacementUuid: s.replacementUuid(),
		Trxs: []EthgasTx{
			{
				Tx:        hexutil.Bytes(raw),
				CanRevert: false,
			},
		},
	}, nil
}

func (s *EthgasInclusionSender) SendInclusion(ctx context.Context, targetSlot uint64, env envelope.ITransactionEnvelope) (*InclusionResponse, error) {
	request, err := s.BuildRequest(targetSlot, env)
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Infow("Sending inclusion request",
		"protocol", config.Protocol_Ethgas,
		"url", s.url,
		"slot", targetSlot,
		"tx_hash", env.Hash().Hex(),
		"replacement_uuid", request.ReplacementUuid,
	)

	resp, err := s.transport.PostJSON(ctx, s.url, nil, request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send Ethgas inclusion preconf")
	}

	s.logger.Sugar().Infow("Received inclusion response",
		"protocol", config.Protocol_Ethgas,
		"status_code", resp.StatusCode,
	)

	return &InclusionResponse{
		Protocol:   config.Protocol_Ethgas.String(),
		Url:        s.url,
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}, nil
}
