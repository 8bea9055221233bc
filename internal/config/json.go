package config

import (
	"encoding/json"
	"os"

	"github.com/digivault/digivault/internal/flagx"
	"github.com/digivault/digivault/internal/timex"
)

// JsonConfig is the file-format counterpart of Config. Duration fields use
// timex.Duration so the file may say "30m" instead of nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	PublicOrigin     string         `json:"public_origin"`
	Storage          string         `json:"storage"`
	DatabaseDSN      string         `json:"database_dsn"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c/-config, if any.
// An unreadable or malformed file is a startup failure, so it panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.PublicOrigin = c.PublicOrigin
	config.Storage = c.Storage
	config.DatabaseDSN = c.DatabaseDSN
	config.SessionTTL = c.SessionTTL.Duration
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
