package protocols

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/preconf-sender-go/pkg/authSigner"
	"github.com/Layr-Labs/preconf-sender-go/pkg/config"
	"github.com/Layr-Labs/preconf-sender-go/pkg/envelope"
	"github.com/Layr-Labs/preconf-sender-go/pkg/transport"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// JsonRpcSenderConfig parameterizes the signed JSON-RPC inclusion request shared by Bolt and Luban
type JsonRpcSenderConfig struct {
	Protocol        config.Protocol
	Url             string
	Method          string
	SignatureHeader string
	Signer          authSigner.IHashSigner
	HttpClient      *http.Client
	Logger          *zap.Logger
}

// JsonRpcInclusionSender POSTs a JSON-RPC inclusion request with an AuthSignature header
type JsonRpcInclusionSender struct {
	protocol        config.Protocol
	url             string
	method          string
	signatureHeader string
	signer          authSigner.IHashSigner
	transport       *transport.Client
	logger          *zap.Logger
}

var _ IInclusionSender = (*JsonRpcInclusionSender)(nil)

// NewJsonRpcInclusionSender creates a new JSON-RPC inclusion sender
func NewJsonRpcInclusionSender(cfg *JsonRpcSenderConfig) (*JsonRpcInclusionSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Url == "" {
		return nil, fmt.Errorf("preconfer URL is required")
	}
	if cfg.Method == "" {
		return nil, fmt.Errorf("JSON-RPC method is required")
	}
	if cfg.SignatureHeader == "" {
		return nil, fmt.Errorf("signature header is required")
	}
	if cfg.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &JsonRpcInclusionSender{
		protocol:        cfg.Protocol,
		url:             cfg.Url,
		method:          cfg.Method,
		signatureHeader: cfg.SignatureHeader,
		signer:          cfg.Signer,
		transport:       transport.NewClient(cfg.HttpClient, cfg.Logger),
		logger:          cfg.Logger,
	}, nil
}

// NewBoltInclusionSender creates a sender for bolt_requestInclusion
func NewBoltInclusionSender(url string, signer authSigner.IHashSigner, httpClient *http.Client, logger *zap.Logger) (*JsonRpcInclusionSender, error) {
	return NewJsonRpcInclusionSender(&JsonRpcSenderConfig{
		Protocol:        config.Protocol_Bolt,
		Url:             url,
		Method:          MethodBoltRequestInclusion,
		SignatureHeader: HeaderBoltSignature,
		Signer:          signer,
		HttpClient:      httpClient,
		Logger:          logger,
	})
}

// NewLubanInclusionSender creates a sender for luban_requestInclusion. Luban accepts the Bolt header.
func NewLubanInclusionSender(url string, signer authSigner.IHashSigner, httpClient *http.Client, logger *zap.Logger) (*JsonRpcInclusionSender, error) {
	return NewJsonRpcInclusionSender(&JsonRpcSenderConfig{
		Protocol:        config.Protocol_Luban,
		Url:             url,
		Method:          MethodLubanRequestInclusion,
		SignatureHeader: HeaderBoltSignature,
		Signer:          signer,
		HttpClient:      httpClient,
		Logger:          logger,
	})
}

// NewInclusionRequest builds the JSON-RPC envelope for method
func NewInclusionRequest(method string, targetSlot uint64, rawTxs []hexutil.Bytes) *JsonRpcRequest {
	return &JsonRpcRequest{
		Id:      JsonRpcRequestId,
		JsonRpc: JsonRpcVersion,
		Method:  method,
		Params: []InclusionParams{
			{
				Slot: targetSlot,
				Txs:  rawTxs,
			},
		},
	}
}

func (s *JsonRpcInclusionSender) Protocol() config.Protocol {
	return s.protocol
}

func (s *JsonRpcInclusionSender) Method() string {
	return s.method
}

// BuildRequest returns the request body and the AuthSignature for env in targetSlot
func (s *JsonRpcInclusionSender) BuildRequest(ctx context.Context, targetSlot uint64, env envelope.ITransactionEnvelope) (*JsonRpcRequest, authSigner.AuthSignature, error) {
	raw, err := encodeSingle(env)
	if err != nil {
		return nil, "", err
	}

	request := NewInclusionRequest(s.method, targetSlot, []hexutil.Bytes{raw})

	signature, err := authSigner.SignInclusion(ctx, []common.Hash{env.Hash()}, targetSlot, s.signer)
	if err != nil {
		return nil, "", err
	}
	return request, signature, nil
}

// SendInclusion signs and POSTs the inclusion request to the preconfer URL as-is
func (s *JsonRpcInclusionSender) SendInclusion(ctx context.Context, targetSlot uint64, env envelope.ITransactionEnvelope) (*InclusionResponse, error) {
	request, signature, err := s.BuildRequest(ctx, targetSlot, env)
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Infow("Sending inclusion request",
		"protocol", s.protocol,
		"method", s.method,
		"url", s.url,
		"slot", targetSlot,
		"tx_hash", env.Hash().Hex(),
		"signer", s.signer.Address().Hex(),
	)

	resp, err := s.transport.PostJSON(ctx, s.url, map[string]string{
		s.signatureHeader: signature.String(),
	}, request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send %s request", s.method)
	}

	s.logger.Sugar().Infow("Received inclusion response",
		"protocol", s.protocol,
		"status_code", resp.StatusCode,
	)

	return &InclusionResponse{
		Protocol:   s.protocol.String(),
		Url:        s.url,
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}, nil
}
