package beacon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/Layr-Labs/preconf-sender-go/pkg/transport"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HeadHeaderPath is resolved relative to the beacon base URL
const HeadHeaderPath = "eth/v1/beacon/headers/head"

// IHeadSlotReader reads the slot of the current beacon chain head
type IHeadSlotReader interface {
	HeadSlot(ctx context.Context) (uint64, error)
}

// QuotedUint64 is a uint64 carried as a decimal JSON string, as the beacon API does
type QuotedUint64 uint64

func (q QuotedUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(q), 10))
}

func (q *QuotedUint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a quoted decimal integer, got %s", string(data))
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 %q: %w", s, err)
	}
	*q = QuotedUint64(v)
	return nil
}

// ApiResponse is the standard beacon API envelope
type ApiResponse[T any] struct {
	Data T `json:"data"`
}

type HeaderData struct {
	Header SignedHeader `json:"header"`
}

type SignedHeader struct {
	Message HeaderMessage `json:"message"`
}

type HeaderMessage struct {
	Slot *QuotedUint64 `json:"slot"`
}

// DecodeHeadSlot extracts the slot from a head header response body
func DecodeHeadSlot(body []byte) (uint64, error) {
	var resp ApiResponse[HeaderData]
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, preconfErrors.NewDecodeError(err, "failed to decode head header").WithBody(string(body))
	}
	if resp.Data.Header.Message.Slot == nil {
		return 0, preconfErrors.NewDecodeError(nil, "head header response has no data.header.message.slot").WithBody(string(body))
	}
	return uint64(*resp.Data.Header.Message.Slot), nil
}

// EncodeHeadSlot renders the minimal head header response for slot
func EncodeHeadSlot(slot uint64) ([]byte, error) {
	s := QuotedUint64(slot)
	return json.Marshal(ApiResponse[HeaderData]{
		Data: HeaderData{Header: SignedHeader{Message: HeaderMessage{Slot: &s}}},
	})
}

type ClientConfig struct {
	BaseUrl    string
	HttpClient *http.Client
	Logger     *zap.Logger
}

// Client queries a beacon node over the standard HTTP API
type Client struct {
	baseUrl   *url.URL
	transport *transport.Client
	logger    *zap.Logger
}

var _ IHeadSlotReader = (*Client)(nil)

// NewClient creates a new beacon client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseUrl == "" {
		return nil, fmt.Errorf("beacon base URL is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	baseUrl, err := url.Parse(config.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid beacon base URL: %w", err)
	}

	return &Client{
		baseUrl:   baseUrl,
		transport: transport.NewClient(config.HttpClient, config.Logger),
		logger:    config.Logger,
	}, nil
}

// HeadUrl returns the resolved head header endpoint
func (c *Client) HeadUrl() *url.URL {
	return c.baseUrl.ResolveReference(&url.URL{Path: HeadHeaderPath})
}

// HeadSlot fetches the current head header once and returns its slot
func (c *Client) HeadSlot(ctx context.Context) (uint64, error) {
	headUrl := c.HeadUrl()

	resp, err := c.transport.GetJSON(ctx, headUrl.String())
	if err != nil {
		return 0, errors.Wrapf(err, "failed to fetch beacon head header")
	}

	slot, err := DecodeHeadSlot(resp.Body)
	if err != nil {
		return 0, err
	}

	c.logger.Sugar().Debugw("Fetched beacon head slot", "slot", slot)
	return slot, nil
}
