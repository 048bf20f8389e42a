package config

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = "SNACKDASH"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "SNACKDASH_APP_ENV"
	EnvPort   = "SNACKDASH_APP_PORT"

	EnvDBDSN  = "SNACKDASH_DB_DSN"
	EnvDBHost = "SNACKDASH_DB_HOST"
	EnvDBUser = "SNACKDASH_DB_USER"
	EnvDBName = "SNACKDASH_DB_NAME"

	EnvRedisURL = "SNACKDASH_REDIS_URL"

	EnvGatewayBaseURL = "SNACKDASH_GATEWAY_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
