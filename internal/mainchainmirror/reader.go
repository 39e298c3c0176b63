package mainchainmirror

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/codec"
	"github.com/randomx-labs/p2pool-node/internal/rpcclient"
)

const (
	pingInterval    = 6 * time.Second
	inactivityLimit = 30 * time.Second
	backfillStart   = 100 * time.Millisecond
	backfillCap     = 10 * time.Second
)

// HeaderFetcher fetches the current mainchain tip over HTTP. On startup the
// Reader imports only that tip header; older headers in the window and the
// seed-height anchors are not fetched, so the window fills only as new heads
// arrive over the WS subscription.
type HeaderFetcher interface {
	LatestHeader(ctx context.Context) (chain.Header, error)
}

// Reader subscribes to new mainchain headers over WebSocket and feeds them
// into a Mirror, reconnecting with a Fibonacci backoff on any failure.
type Reader struct {
	WSURL   string
	HTTP    HeaderFetcher
	Mirror  *Mirror
	Log     *zap.Logger
}

type newHeadsNotification struct {
	Params struct {
		Result json.RawMessage `json:"result"`
	} `json:"params"`
}

// Run backfills the mirror from the HTTP endpoint, then subscribes over WS
// until ctx is cancelled, reconnecting on failure with a Fibonacci backoff.
func (r *Reader) Run(ctx context.Context) {
	r.backfill(ctx)

	bo := newFibonacciBackOff(backfillStart, backfillCap)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := r.subscribeOnce(ctx); err != nil {
			r.logError("mainchain subscription error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(bo.NextBackOff()):
			}
			continue
		}
		bo.Reset()
	}
}

func (r *Reader) backfill(ctx context.Context) {
	if r.HTTP == nil {
		return
	}
	header, err := r.HTTP.LatestHeader(ctx)
	if err != nil {
		r.logError("mainchain backfill failed", err)
		return
	}
	r.Mirror.ImportHeader(header)
}

func (r *Reader) subscribeOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub := rpcclient.Request{JSONRPC: "2.0", Method: "chain_subscribeNewHeads", ID: 1}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go r.keepAlive(conn, done)

	conn.SetReadDeadline(time.Now().Add(inactivityLimit))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(inactivityLimit))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return nil
		}
		var notif newHeadsNotification
		if err := conn.ReadJSON(&notif); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(inactivityLimit))

		var hexBody struct {
			Data string `json:"data"`
		}
		if err := json.Unmarshal(notif.Params.Result, &hexBody); err != nil {
			r.logError("mainchain subscription decode error", err)
			continue
		}
		header, err := decodeHexHeader(hexBody.Data)
		if err != nil {
			r.logError("mainchain header decode error", err)
			continue
		}
		r.Mirror.ImportHeader(header)
	}
}

func (r *Reader) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (r *Reader) logError(msg string, err error) {
	if r.Log != nil {
		r.Log.Warn(msg, zap.Error(err))
	}
}

func decodeHexHeader(hexData string) (chain.Header, error) {
	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return chain.Header{}, err
	}
	return codec.DecodeHeader(raw)
}
