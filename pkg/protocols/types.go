package protocols

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	JsonRpcVersion   = "2.0"
	JsonRpcRequestId = "1"

	MethodBoltRequestInclusion  = "bolt_requestInclusion"
	MethodLubanRequestInclusion = "luban_requestInclusion"

	// HeaderBoltSignature carries the AuthSignature for Bolt and Luban
	HeaderBoltSignature = "x-bolt-signature"

	// EthgasSendPath is resolved against the Ethgas base URL
	EthgasSendPath = "/api/inclusion_preconf/send"
)

// JsonRpcRequest is the envelope sent to Bolt and Luban
type JsonRpcRequest struct {
	Id      string            `json:"id"`
	JsonRpc string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []InclusionParams `json:"params"`
}

// InclusionParams requests inclusion of Txs in Slot
type InclusionParams struct {
	Slot uint64          `json:"slot"`
	Txs  []hexutil.Bytes `json:"txs"`
}

// EthgasRequest is the body of an Ethgas inclusion preconf submission
type EthgasRequest struct {
	SlotNumber      uint64     `json:"slotNumber"`
	ReplacementUuid string     `json:"replacementUuid"`
	Trxs            []EthgasTx `json:"trxs"`
}

type EthgasTx struct {
	Tx        hexutil.Bytes `json:"tx"`
	CanRevert bool          `json:"canRevert"`
}

// InclusionResponse is the relay's raw 2xx answer. The body is not interpreted:
// an application-level error inside a 2xx body is still returned as a response.
type InclusionResponse struct {
	Protocol   string
	Url        string
	StatusCode int
	Body       string
}
