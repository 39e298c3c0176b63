package rpcserver

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

type fakeTemplates struct {
	data       *chain.MinerData
	legacyData *chain.MinerData
}

func (f fakeTemplates) BlockTemplate(ctx context.Context, bestHash chain.Hash) *chain.MinerData {
	return f.data
}

func (f fakeTemplates) LegacyBlockTemplate(ctx context.Context) *chain.MinerData {
	return f.legacyData
}

type fakeBestHash struct {
	hash chain.Hash
	ok   bool
}

func (f fakeBestHash) BestHash() (chain.Hash, bool) { return f.hash, f.ok }

type fakeSubmitter struct {
	accepted bool
	err      error
}

func (f fakeSubmitter) Submit(sealBytes []byte) (bool, error) { return f.accepted, f.err }

func doRPC(t *testing.T, router http.Handler, method string, params []string) response {
	t.Helper()
	body, _ := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v, body=%s", err, rec.Body.String())
	}
	return resp
}

func TestHandleMinerDataReturnsEncodedData(t *testing.T) {
	s := New(fakeTemplates{data: &chain.MinerData{SeedHash: chain.Hash{9}}}, fakeBestHash{ok: true}, fakeSubmitter{}, nil)

	resp := doRPC(t, s.router, "miner_getMinerData", nil)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	raw, _ := json.Marshal(resp.Result)
	var result minerDataResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if _, err := hex.DecodeString(result.Data); err != nil {
		t.Fatalf("expected hex-encoded data, got %q", result.Data)
	}
}

func TestHandleMinerDataErrorsWithoutBestHash(t *testing.T) {
	s := New(fakeTemplates{}, fakeBestHash{ok: false}, fakeSubmitter{}, nil)

	resp := doRPC(t, s.router, "miner_getMinerData", nil)
	if resp.Error == nil || resp.Error.Code != codeNoBestJob {
		t.Fatalf("expected codeNoBestJob error, got %+v", resp.Error)
	}
}

func TestHandleSubmitAccepts(t *testing.T) {
	s := New(fakeTemplates{}, fakeBestHash{ok: true}, fakeSubmitter{accepted: true}, nil)

	resp := doRPC(t, s.router, "submitBlock", []string{hex.EncodeToString([]byte{1, 2, 3})})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	raw, _ := json.Marshal(resp.Result)
	var result submitResult
	json.Unmarshal(raw, &result)
	if !result.Accepted {
		t.Fatal("expected the submission to be accepted")
	}
}

func TestHandleSubmitRejectsBadHex(t *testing.T) {
	s := New(fakeTemplates{}, fakeBestHash{ok: true}, fakeSubmitter{}, nil)

	resp := doRPC(t, s.router, "submitBlock", []string{"not-hex"})
	if resp.Error == nil || resp.Error.Code != codeCodec {
		t.Fatalf("expected codeCodec error, got %+v", resp.Error)
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	s := New(fakeTemplates{}, fakeBestHash{ok: true}, fakeSubmitter{}, nil)

	resp := doRPC(t, s.router, "bogus", nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected codeMethodNotFound error, got %+v", resp.Error)
	}
}
