package domain

type ChainID string

const (
	// ChainSyscoin is chain A: the Syscoin full node (syscoind).
	ChainSyscoin ChainID = "syscoin"
	// ChainEthereum is chain B: the Ethereum node embedded in the agent (sysgeth).
	ChainEthereum ChainID = "ethereum"
)

// DefaultProcesses is the fixed fleet supervised by the watchdog.
var DefaultProcesses = []string{"agent", "syscoind", "sysgeth", "sysrelayer"}
