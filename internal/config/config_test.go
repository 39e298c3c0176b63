package config

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				P2Pool: P2PoolConfig{
					Author:       "p2pool1testaddress",
					WindowSize:   2160,
					MainchainRPC: "http://127.0.0.1:9933",
				},
				Mining: MiningConfig{Threads: 4},
				RPC:    RPCConfig{Bind: "0.0.0.0:9955"},
			},
			wantErr: false,
		},
		{
			name: "missing author",
			config: Config{
				P2Pool: P2PoolConfig{WindowSize: 2160, MainchainRPC: "http://127.0.0.1:9933"},
				RPC:    RPCConfig{Bind: "0.0.0.0:9955"},
			},
			wantErr: true,
			errMsg:  "p2pool.author is required",
		},
		{
			name: "zero window size",
			config: Config{
				P2Pool: P2PoolConfig{Author: "p2pool1testaddress", MainchainRPC: "http://127.0.0.1:9933"},
				RPC:    RPCConfig{Bind: "0.0.0.0:9955"},
			},
			wantErr: true,
			errMsg:  "p2pool.window_size must be > 0",
		},
		{
			name: "missing mainchain rpc",
			config: Config{
				P2Pool: P2PoolConfig{Author: "p2pool1testaddress", WindowSize: 2160},
				RPC:    RPCConfig{Bind: "0.0.0.0:9955"},
			},
			wantErr: true,
			errMsg:  "p2pool.mainchain_rpc is required",
		},
		{
			name: "negative threads",
			config: Config{
				P2Pool: P2PoolConfig{Author: "p2pool1testaddress", WindowSize: 2160, MainchainRPC: "http://127.0.0.1:9933"},
				Mining: MiningConfig{Threads: -1},
				RPC:    RPCConfig{Bind: "0.0.0.0:9955"},
			},
			wantErr: true,
			errMsg:  "mining.threads must be >= 0",
		},
		{
			name: "missing rpc bind",
			config: Config{
				P2Pool: P2PoolConfig{Author: "p2pool1testaddress", WindowSize: 2160, MainchainRPC: "http://127.0.0.1:9933"},
			},
			wantErr: true,
			errMsg:  "rpc.bind is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && err != nil && err.Error() != tt.errMsg {
				t.Fatalf("error = %q, want %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLogConfigFields(t *testing.T) {
	log := LogConfig{Level: "debug", Format: "json", File: "/var/log/p2pool-node.log"}
	if log.Level != "debug" {
		t.Errorf("LogConfig.Level = %s, want debug", log.Level)
	}
}

func TestProfilingConfigStruct(t *testing.T) {
	profiling := ProfilingConfig{Enabled: true, Bind: "127.0.0.1:6060"}
	if !profiling.Enabled {
		t.Error("ProfilingConfig.Enabled should be true")
	}
	if profiling.Bind != "127.0.0.1:6060" {
		t.Errorf("ProfilingConfig.Bind = %s, want 127.0.0.1:6060", profiling.Bind)
	}
}

func TestNewRelicConfigStruct(t *testing.T) {
	newrelic := NewRelicConfig{Enabled: true, AppName: "p2pool-node", LicenseKey: "license_key_here"}
	if newrelic.AppName != "p2pool-node" {
		t.Errorf("NewRelicConfig.AppName = %s, want p2pool-node", newrelic.AppName)
	}
}

func TestP2PoolConfigFields(t *testing.T) {
	cfg := P2PoolConfig{WindowSize: 2160, MainchainRPC: "http://127.0.0.1:9933", MainchainWS: "ws://127.0.0.1:9944"}
	if cfg.WindowSize != 2160 {
		t.Errorf("P2PoolConfig.WindowSize = %d, want 2160", cfg.WindowSize)
	}
}

func TestRPCConfigTimeout(t *testing.T) {
	cfg := RPCConfig{Timeout: 10 * time.Second, MaxRetries: 3}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("RPCConfig.Timeout = %v, want 10s", cfg.Timeout)
	}
}
