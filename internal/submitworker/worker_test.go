package submitworker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	seen []chain.BlockSubmitParams
	err  error
}

func (f *fakeSubmitter) SubmitBlock(ctx context.Context, params chain.BlockSubmitParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, params)
	return f.err
}

func TestWorkerSubmitsQueuedBlocks(t *testing.T) {
	rpc := &fakeSubmitter{}
	w := New(rpc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Submit(chain.BlockSubmitParams{Seal: []byte{1}})
	w.Submit(chain.BlockSubmitParams{Seal: []byte{2}})

	deadline := time.After(time.Second)
	for {
		rpc.mu.Lock()
		n := len(rpc.seen)
		rpc.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for both submissions, got %d", n)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestWorkerContinuesAfterSubmitError(t *testing.T) {
	rpc := &fakeSubmitter{err: errors.New("boom")}
	w := New(rpc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Submit(chain.BlockSubmitParams{Seal: []byte{1}})
	w.Submit(chain.BlockSubmitParams{Seal: []byte{2}})

	deadline := time.After(time.Second)
	for {
		rpc.mu.Lock()
		n := len(rpc.seen)
		rpc.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("worker should keep draining the queue after an error, got %d", n)
		case <-time.After(time.Millisecond):
		}
	}
}
