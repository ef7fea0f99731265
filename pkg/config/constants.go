package config

const (
	EnvPrefix = "honmaec"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "HONMAEC_APP_ENV"
	EnvPort     = "HONMAEC_APP_PORT"
	EnvDBDSN    = "HONMAEC_DB_DSN"
	EnvDBHost   = "HONMAEC_DB_HOST"
	EnvDBUser   = "HONMAEC_DB_USER"
	EnvDBName   = "HONMAEC_DB_NAME"
	EnvRedisURL = "HONMAEC_REDIS_URL"

	EnvAuthJWTSecret = "HONMAEC_AUTH_JWT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
