// Package syscoin checks a syscoind full node against a reference node
// over Bitcoin-style JSON-RPC 1.0.
package syscoin

import (
	"context"
	"fmt"
	logger "log/slog"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

type SyscoinProbe struct {
	chainID domain.ChainID
	local   rpc.RPCClient
	remote  rpc.RPCClient
	maxLag  uint64
	log     *logger.Logger
}

func NewSyscoinProbe(local, remote rpc.RPCClient, maxLag uint64) *SyscoinProbe {
	return &SyscoinProbe{
		chainID: domain.ChainSyscoin,
		local:   local,
		remote:  remote,
		maxLag:  maxLag,
		log:     logger.Default().With("chain", domain.ChainSyscoin),
	}
}

func (p *SyscoinProbe) GetChainID() domain.ChainID {
	return p.chainID
}

// Check compares block hashes at the highest height both nodes have.
// Tip heights are the nodes' own block counts; tip hashes are taken at
// the shared height so that a fork shows up as differing hashes.
func (p *SyscoinProbe) Check(ctx context.Context) (domain.ChainStatus, error) {
	localHeight, err := p.blockCount(ctx, p.local)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("local: %w", err)
	}
	remoteHeight, err := p.blockCount(ctx, p.remote)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("remote: %w", err)
	}

	shared := min(localHeight, remoteHeight)
	localHash, err := p.blockHash(ctx, p.local, shared)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("local: %w", err)
	}
	remoteHash, err := p.blockHash(ctx, p.remote, shared)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("remote: %w", err)
	}

	local := &domain.ChainTip{Height: localHeight, Hash: localHash}
	remote := &domain.ChainTip{Height: remoteHeight, Hash: remoteHash}

	if localHash != remoteHash {
		p.log.Warn("block hash mismatch", "height", shared, "local", localHash, "remote", remoteHash)
		return chain.Mismatch(local, remote, fmt.Sprintf("block hash mismatch at height %d", shared)), nil
	}
	if remoteHeight > localHeight && remoteHeight-localHeight > p.maxLag {
		p.log.Warn("local node behind reference", "local", localHeight, "remote", remoteHeight)
		return chain.Mismatch(local, remote, fmt.Sprintf("local node %d blocks behind", remoteHeight-localHeight)), nil
	}
	return chain.InSync(local, remote), nil
}

func (p *SyscoinProbe) blockCount(ctx context.Context, client rpc.RPCClient) (uint64, error) {
	result, err := client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockcount"))
	if err != nil {
		return 0, fmt.Errorf("failed to get block count: %w", err)
	}

	height, ok := result.(float64)
	if !ok || height < 0 {
		return 0, fmt.Errorf("invalid block count response")
	}
	return uint64(height), nil
}

func (p *SyscoinProbe) blockHash(ctx context.Context, client rpc.RPCClient, height uint64) (string, error) {
	result, err := client.Execute(ctx, rpc.NewJSONRPC10Operation("getblockhash", height))
	if err != nil {
		return "", fmt.Errorf("failed to get block hash: %w", err)
	}

	hash, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("invalid block hash response")
	}
	return hash, nil
}
