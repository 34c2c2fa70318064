package chain

import (
	"context"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// Probe compares a local node against its reference node.
// A returned error means the comparison could not be made at all.
type Probe interface {
	// Check reports whether the local node is on the right chain and in sync.
	Check(ctx context.Context) (domain.ChainStatus, error)

	// GetChainID returns the chain identifier
	GetChainID() domain.ChainID
}

// Mismatch returns a failed status carrying both tips.
func Mismatch(local, remote *domain.ChainTip, reason string) domain.ChainStatus {
	return domain.ChainStatus{IsError: true, Local: local, Remote: remote, Err: reason}
}

// InSync returns a healthy status carrying both tips.
func InSync(local, remote *domain.ChainTip) domain.ChainStatus {
	return domain.ChainStatus{Local: local, Remote: remote}
}
