package config

// EnvPrefix is the envconfig prefix; individual fields carry explicit names so
// the prefix mostly matters for documentation.
const EnvPrefix = "wallethub"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "WALLETHUB_DB_DSN"
	EnvDBHost = "WALLETHUB_DB_HOST"
	EnvDBUser = "WALLETHUB_DB_USER"
	EnvDBName = "WALLETHUB_DB_NAME"
)

var dbEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
