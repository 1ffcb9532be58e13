package config

// EnvPrefix namespaces every environment variable consumed by envconfig.
const EnvPrefix = "THREADLINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "THREADLINE_APP_ENV"
	EnvPort     = "THREADLINE_APP_PORT"
	EnvLogLevel = "THREADLINE_LOG_LEVEL"

	EnvDBDSN  = "THREADLINE_DB_DSN"
	EnvDBHost = "THREADLINE_DB_HOST"
	EnvDBPort = "THREADLINE_DB_PORT"
	EnvDBUser = "THREADLINE_DB_USER"
	EnvDBPass = "THREADLINE_DB_PASSWORD"
	EnvDBName = "THREADLINE_DB_NAME"

	EnvRedisURL = "THREADLINE_REDIS_URL"

	EnvJWTSecret  = "THREADLINE_JWT_SECRET"
	EnvJWTIssuer  = "THREADLINE_JWT_ISSUER"
	EnvJWTExpMins = "THREADLINE_JWT_EXPIRATION_MINUTES"

	EnvSendgridAPIKey  = "THREADLINE_SENDGRID_API_KEY"
	EnvMailFromAddress = "THREADLINE_MAIL_FROM_ADDRESS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
