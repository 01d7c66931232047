package config

// Environment variable names referenced outside envconfig tags.
const (
	EnvPrefix = "CLUBFEES"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "CLUBFEES_APP_ENV"
	EnvPort     = "CLUBFEES_APP_PORT"
	EnvDBDSN    = "CLUBFEES_DB_DSN"
	EnvDBHost   = "CLUBFEES_DB_HOST"
	EnvDBUser   = "CLUBFEES_DB_USER"
	EnvDBName   = "CLUBFEES_DB_NAME"
	EnvRedisURL = "CLUBFEES_REDIS_URL"

	EnvMPAccessToken = "CLUBFEES_MP_ACCESS_TOKEN"
	EnvFrontendURL   = "CLUBFEES_FRONTEND_URL"
	EnvBackendURL    = "CLUBFEES_BACKEND_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
