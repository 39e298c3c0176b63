package rpcserver

// JSON-RPC error codes for this surface, mirrored from
// original_source/hashcash/client/rpc/src/miner/error.rs's codes module.
const (
	codeBase           = 1000
	codeCodec          = codeBase + 1
	codeMinerData      = codeBase + 2
	codeBlockSubmit    = codeBase + 3
	codeNoBestJob      = codeBase + 4
	codeMethodNotFound = codeBase + 5
)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
