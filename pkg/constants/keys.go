package constants

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	TenantKey ContextKey = "tenant"
	LoggerKey ContextKey = "logger"
)
