package config

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendMemory = "memory"
	StorageBackendSQLite = "sqlite"
	StorageBackendRedis  = "redis"
)
