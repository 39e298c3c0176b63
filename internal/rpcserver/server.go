// Package rpcserver exposes this node's JSON-RPC 2.0 surface for connected
// miners: fetching the current job and submitting a solved seal. Method
// names and request shapes are ported from
// original_source/hashcash/client/rpc/src/miner/mod.rs's MinerApi trait;
// the route/middleware conventions (gin, CORS, /health) are ported from
// teacher internal/api/server.go.
package rpcserver

import (
	"context"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/randomx-labs/p2pool-node/internal/chain"
)

// BlockTemplateSource produces a fresh MinerData for a connected miner.
type BlockTemplateSource interface {
	BlockTemplate(ctx context.Context, bestHash chain.Hash) *chain.MinerData
	LegacyBlockTemplate(ctx context.Context) *chain.MinerData
}

// BestHashSource reports the sidechain tip the currently published job is
// building on. Satisfied by *internal/mininghandle.Handle.
type BestHashSource interface {
	BestHash() (chain.Hash, bool)
}

// BlockSubmitter re-verifies and finalizes a submitted seal. Satisfied by
// *internal/mininghandle.Handle.Submit.
type BlockSubmitter interface {
	Submit(sealBytes []byte) (bool, error)
}

// Server is the gin-backed JSON-RPC 2.0 endpoint.
type Server struct {
	Templates BlockTemplateSource
	BestHash  BestHashSource
	Submitter BlockSubmitter
	Log       *zap.Logger

	router *gin.Engine
	server *http.Server
}

// request is the JSON-RPC 2.0 envelope this server accepts.
type request struct {
	JSONRPC string   `json:"jsonrpc"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
	ID      uint64   `json:"id"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
	ID      uint64      `json:"id"`
}

type minerDataResult struct {
	Data string `json:"data"`
}

type submitResult struct {
	Accepted bool `json:"accepted"`
}

// New builds a Server with routes installed.
func New(templates BlockTemplateSource, best BestHashSource, submitter BlockSubmitter, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{Templates: templates, BestHash: best, Submitter: submitter, Log: log, router: router}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.POST("/", s.handleRPC)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(addr string) {
	s.server = &http.Server{Addr: addr, Handler: s.router}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logError("rpc server stopped unexpectedly", err)
		}
	}()
}

// Stop shuts down the HTTP listener.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *Server) handleRPC(c *gin.Context) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{JSONRPC: "2.0", Error: &rpcError{Code: codeCodec, Message: err.Error()}})
		return
	}

	switch req.Method {
	case "getBlockTemplate", "miner_getBlockTemplate":
		s.handleLegacyTemplate(c, req)
	case "miner_getMinerData":
		s.handleMinerData(c, req)
	case "submitBlock", "miner_submitBlock":
		s.handleSubmit(c, req)
	default:
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeMethodNotFound, Message: "unknown method " + req.Method}})
	}
}

func (s *Server) handleLegacyTemplate(c *gin.Context, req request) {
	data := s.Templates.LegacyBlockTemplate(c.Request.Context())
	if data == nil {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeMinerData, Message: "no block template available"}})
		return
	}
	c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Result: minerDataResult{Data: encodeMinerData(data)}})
}

func (s *Server) handleMinerData(c *gin.Context, req request) {
	bestHash, ok := s.BestHash.BestHash()
	if !ok {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeNoBestJob, Message: "no best hash known yet"}})
		return
	}
	data := s.Templates.BlockTemplate(c.Request.Context(), bestHash)
	if data == nil {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeMinerData, Message: "failed to build miner data"}})
		return
	}
	c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Result: minerDataResult{Data: encodeMinerData(data)}})
}

func (s *Server) handleSubmit(c *gin.Context, req request) {
	if len(req.Params) < 1 {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeCodec, Message: "missing seal parameter"}})
		return
	}
	sealBytes, err := hex.DecodeString(req.Params[0])
	if err != nil {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeCodec, Message: err.Error()}})
		return
	}

	accepted, err := s.Submitter.Submit(sealBytes)
	if err != nil {
		c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeBlockSubmit, Message: err.Error()}})
		return
	}
	c.JSON(http.StatusOK, response{JSONRPC: "2.0", ID: req.ID, Result: submitResult{Accepted: accepted}})
}

func (s *Server) logError(msg string, err error) {
	if s.Log != nil {
		s.Log.Error(msg, zap.Error(err))
	}
}
