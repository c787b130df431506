// Package preconf wires the beacon head reader to a protocol adapter: it targets the
// slot after the current head and submits one transaction for inclusion there.
package preconf

import (
	"context"
	"fmt"
	"math"

	"github.com/Layr-Labs/preconf-sender-go/pkg/beacon"
	"github.com/Layr-Labs/preconf-sender-go/pkg/config"
	"github.com/Layr-Labs/preconf-sender-go/pkg/envelope"
	"github.com/Layr-Labs/preconf-sender-go/pkg/preconfErrors"
	"github.com/Layr-Labs/preconf-sender-go/pkg/protocols"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NextSlot returns the slot following head
func NextSlot(head uint64) (uint64, error) {
	if head == math.MaxUint64 {
		return 0, preconfErrors.NewPreconditionError(nil, "head slot %d has no successor", head)
	}
	return head + 1, nil
}

// Target is the submission about to be dispatched
type Target struct {
	Protocol   config.Protocol
	TxHash     common.Hash
	HeadSlot   uint64
	TargetSlot uint64
}

type SenderConfig struct {
	HeadSlotReader  beacon.IHeadSlotReader
	InclusionSender protocols.IInclusionSender
	Logger          *zap.Logger

	// OnTarget, if set, is called once the target slot is known and before the relay call
	OnTarget func(Target)
}

// Result describes one submitted inclusion request
type Result struct {
	HeadSlot   uint64
	TargetSlot uint64
	Response   *protocols.InclusionResponse
}

type Sender struct {
	headSlotReader  beacon.IHeadSlotReader
	inclusionSender protocols.IInclusionSender
	logger          *zap.Logger
	onTarget        func(Target)
}

// NewSender creates a new Sender
func NewSender(cfg *SenderConfig) (*Sender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.HeadSlotReader == nil {
		return nil, fmt.Errorf("head slot reader is required")
	}
	if cfg.InclusionSender == nil {
		return nil, fmt.Errorf("inclusion sender is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Sender{
		headSlotReader:  cfg.HeadSlotReader,
		inclusionSender: cfg.InclusionSender,
		logger:          cfg.Logger,
		onTarget:        cfg.OnTarget,
	}, nil
}

// Send reads the head slot once and requests inclusion of env in the next slot.
// Nothing is retried; the first error aborts the submission.
func (s *Sender) Send(ctx context.Context, env envelope.ITransactionEnvelope) (*Result, error) {
	if _, err := envelope.RequireDestination(env); err != nil {
		return nil, err
	}

	head, err := s.headSlotReader.HeadSlot(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read head slot")
	}

	target, err := NextSlot(head)
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Infow("Requesting inclusion",
		"protocol", s.inclusionSender.Protocol(),
		"tx_hash", env.Hash().Hex(),
		"head_slot", head,
		"target_slot", target,
	)
	if s.onTarget != nil {
		s.onTarget(Target{
			Protocol:   s.inclusionSender.Protocol(),
			TxHash:     env.Hash(),
			HeadSlot:   head,
			TargetSlot: target,
		})
	}

	resp, err := s.inclusionSender.SendInclusion(ctx, target, env)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to request inclusion in slot %d", target)
	}

	return &Result{
		HeadSlot:   head,
		TargetSlot: target,
		Response:   resp,
	}, nil
}
