package config

// EnvPrefix is passed to envconfig; variable names are spelled out in full on
// each field, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PROMOTERHUB_DB_DSN"
	EnvDBHost = "PROMOTERHUB_DB_HOST"
	EnvDBUser = "PROMOTERHUB_DB_USER"
	EnvDBName = "PROMOTERHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
