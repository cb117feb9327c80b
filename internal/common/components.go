package common

const (
	ComponentReader      = "reader"
	ComponentHandler     = "handler"
	ComponentWatcher     = "watcher"
	ComponentEffects     = "effects"
	ComponentBlockSource = "block-source"
	ComponentStateStore  = "state-store"
	ComponentAPI         = "api"
	ComponentMetrics     = "metrics"
	ComponentRPC         = "rpc"
)

var AllComponents = map[string]struct{}{
	ComponentReader:      {},
	ComponentHandler:     {},
	ComponentWatcher:     {},
	ComponentEffects:     {},
	ComponentBlockSource: {},
	ComponentStateStore:  {},
	ComponentAPI:         {},
	ComponentMetrics:     {},
	ComponentRPC:         {},
}
