package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyGardenLogDir string = "GARDEN_LOG_DIR"

	EnvKeyGardenDBType string = "GARDEN_DB_TYPE"
	EnvKeyGardenDbPath string = "GARDEN_DB_PATH"

	EnvKeyGardenHttpHostPort string = "GARDEN_HTTP_HOST_PORT"
	EnvKeyGardenGrpcHostPort string = "GARDEN_GRPC_HOST_PORT"

	EnvKeyGardenDefaultRate  string = "GARDEN_DEFAULT_RATE"
	EnvKeyGardenDefaultBurst string = "GARDEN_DEFAULT_BURST"

	EnvKeyGardenRepository     string = "GARDEN_REPOSITORY"
	EnvKeyGardenStaticLatency  string = "GARDEN_STATIC_LATENCY"
	EnvKeyGardenRemoteURL      string = "GARDEN_REMOTE_URL"
	EnvKeyGardenRemoteAPIKey   string = "GARDEN_REMOTE_API_KEY"
	EnvKeyGardenRequestTimeout string = "GARDEN_REQUEST_TIMEOUT"
	EnvKeyGardenSessionIdleTTL string = "GARDEN_SESSION_IDLE_TTL"

	EnvKeyGardenTriggerURL            string = "GARDEN_TRIGGER_URL"
	EnvKeyGardenTriggerToken          string = "GARDEN_TRIGGER_TOKEN"
	EnvKeyGardenTriggerTokenExpiresAt string = "GARDEN_TRIGGER_TOKEN_EXPIRES_AT"

	EnvKeyGardenTelemetrySource string = "GARDEN_TELEMETRY_SOURCE"

	EnvKeyGardenMQTTBroker   string = "GARDEN_MQTT_BROKER"
	EnvKeyGardenMQTTClientID string = "GARDEN_MQTT_CLIENT_ID"
	EnvKeyGardenMQTTTopic    string = "GARDEN_MQTT_TOPIC"

	LoggerNameGardenCore    string = "garden_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameIngest        string = "ingest"
	LoggerNameRemote        string = "remote"

	LoggerFieldCategory      string = "category"
	LoggerCategorySession    string = "session"
	LoggerCategoryBucketer   string = "bucketer"
	LoggerCategoryRepository string = "repository"
	LoggerCategoryTrigger    string = "trigger"
	LoggerFieldSessionID     string = "session_id"
	LoggerFieldSource        string = "source"
)
