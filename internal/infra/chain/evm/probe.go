// Package evm checks an Ethereum execution client (sysgeth) against a
// reference endpoint over JSON-RPC 2.0.
package evm

import (
	"context"
	"fmt"
	logger "log/slog"
	"math/big"
	"strings"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

type EVMProbe struct {
	chainID domain.ChainID
	local   rpc.RPCClient
	remote  rpc.RPCClient
	maxLag  uint64
	log     *logger.Logger
}

func NewEVMProbe(chainID domain.ChainID, local, remote rpc.RPCClient, maxLag uint64) *EVMProbe {
	return &EVMProbe{
		chainID: chainID,
		local:   local,
		remote:  remote,
		maxLag:  maxLag,
		log:     logger.Default().With("chain", chainID),
	}
}

func (p *EVMProbe) GetChainID() domain.ChainID {
	return p.chainID
}

// Check fails when the reference is more than maxLag blocks ahead.
func (p *EVMProbe) Check(ctx context.Context) (domain.ChainStatus, error) {
	localHeight, err := p.latestBlock(ctx, p.local)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("local: %w", err)
	}
	remoteHeight, err := p.latestBlock(ctx, p.remote)
	if err != nil {
		return domain.ChainStatus{}, fmt.Errorf("remote: %w", err)
	}

	local := &domain.ChainTip{Height: localHeight}
	remote := &domain.ChainTip{Height: remoteHeight}

	if remoteHeight > localHeight+p.maxLag {
		p.log.Warn("local node out of sync", "local", localHeight, "remote", remoteHeight)
		return chain.Mismatch(local, remote, fmt.Sprintf("local node %d blocks behind", remoteHeight-localHeight)), nil
	}
	return chain.InSync(local, remote), nil
}

func (p *EVMProbe) latestBlock(ctx context.Context, client rpc.RPCClient) (uint64, error) {
	result, err := client.Execute(ctx, rpc.NewHTTPOperation("eth_blockNumber", nil))
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}

	blockHex, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("invalid block number response")
	}
	return parseHexString(blockHex)
}

func parseHexString(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %s", hexStr)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("block number overflows uint64: %s", hexStr)
	}
	return n.Uint64(), nil
}
