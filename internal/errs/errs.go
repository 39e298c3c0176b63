// Package errs defines the shared consensus/import/RPC error taxonomy.
package errs

import "errors"

// Sentinel errors shared across the import pipeline, algorithm adapters, and
// the mining handle. RPC servers map these to the numeric codes in
// internal/rpcserver/errors.go.
var (
	ErrWrongEngine              = errors.New("wrong engine id")
	ErrHeaderUnsealed           = errors.New("header unsealed")
	ErrInvalidSeal              = errors.New("invalid seal")
	ErrFailedPreliminaryVerify  = errors.New("failed preliminary verification")
	ErrTooFarInFuture           = errors.New("block timestamp too far in future")
	ErrBestHeader               = errors.New("unable to fetch best header")
	ErrNoBestHeader             = errors.New("no best header")
	ErrBlockProposingError      = errors.New("block proposing failed")
	ErrCreateInherents          = errors.New("failed to create inherents")
	ErrCheckInherents           = errors.New("failed to check inherents")
	ErrMultiplePreRuntimeDigest = errors.New("multiple pre-runtime digests")
	ErrClient                   = errors.New("client error")
	ErrCodec                    = errors.New("codec error")
	ErrEnvironment              = errors.New("environment error")
	ErrAlreadyImported          = errors.New("already imported block")
	ErrDatasetNotAllocated      = errors.New("dataset not allocated")
	ErrVmNotCreated             = errors.New("vm not created")
	ErrEmptyShares              = errors.New("empty shares")
	ErrRpcTransport             = errors.New("rpc transport error")
)
