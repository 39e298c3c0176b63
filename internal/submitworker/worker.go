// Package submitworker dequeues solved mainchain blocks and forwards them
// to the mainchain node via miner_submitBlock, ported from
// original_source/p2pool/client/consensus/src/submit.rs.
package submitworker

import (
	"context"

	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

// Submitter forwards a solved block upstream.
type Submitter interface {
	SubmitBlock(ctx context.Context, params chain.BlockSubmitParams) error
}

// Worker dequeues chain.BlockSubmitParams sequentially off a buffered Go
// channel (capacity 100000), in place of the original's
// TracingUnboundedSender. The queue is bounded: Submit blocks while the
// buffer is full.
type Worker struct {
	rpc Submitter
	ch  chan chain.BlockSubmitParams
	log *zap.Logger
}

// New constructs a Worker. The channel is large but not literally
// unbounded; 100000 mirrors the original's tracing_unbounded buffer hint.
func New(rpc Submitter, log *zap.Logger) *Worker {
	return &Worker{rpc: rpc, ch: make(chan chain.BlockSubmitParams, 100_000), log: log}
}

// Submit enqueues params for submission. Never blocks under normal load
// given the channel's large capacity.
func (w *Worker) Submit(params chain.BlockSubmitParams) {
	w.ch <- params
}

// Run drains the queue sequentially until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case params := <-w.ch:
			w.submitBlock(ctx, params)
		}
	}
}

func (w *Worker) submitBlock(ctx context.Context, params chain.BlockSubmitParams) {
	if err := w.rpc.SubmitBlock(ctx, params); err != nil {
		w.logError("failed to submit block", err)
		return
	}
	w.logInfo("block submitted", params.Block.Header.Hash())
}

func (w *Worker) logInfo(msg string, hash chain.Hash) {
	if w.log != nil {
		w.log.Info(msg, zap.String("hash", hash.String()))
	}
}

func (w *Worker) logError(msg string, err error) {
	if w.log != nil {
		w.log.Error(msg, zap.Error(err))
	}
}
