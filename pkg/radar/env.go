package radar

import (
	"os"

	"github.com/momentlabs/radar/pkg/shared/stringutil"
)

// ApplyEnvDefaults overlays environment variables onto the config.
// A set environment variable wins over the file.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}

	cfg.API.BaseURL = stringutil.EnvOr(cfg.API.BaseURL, os.Getenv("RADAR_API_BASE_URL"))
	cfg.API.APIKey = stringutil.EnvOr(cfg.API.APIKey, os.Getenv("RADAR_API_KEY"))
	cfg.GraphQL.Endpoint = stringutil.EnvOr(cfg.GraphQL.Endpoint, os.Getenv("RADAR_GRAPHQL_ENDPOINT"))
	cfg.HTML.BaseURL = stringutil.EnvOr(cfg.HTML.BaseURL, os.Getenv("RADAR_HTML_BASE_URL"))
	cfg.Raw.BaseURL = stringutil.EnvOr(cfg.Raw.BaseURL, os.Getenv("RADAR_RAW_BASE_URL"))

	cfg.LLM.APIKey = stringutil.EnvOr(cfg.LLM.APIKey, os.Getenv("OPENAI_API_KEY"))
	cfg.LLM.BaseURL = stringutil.EnvOr(cfg.LLM.BaseURL, os.Getenv("OPENAI_BASE_URL"))
	cfg.LLM.Model = stringutil.EnvOr(cfg.LLM.Model, os.Getenv("RADAR_LLM_MODEL"))

	cfg.Quota.Path = stringutil.EnvOr(cfg.Quota.Path, os.Getenv("RADAR_QUOTA_DB"))
	cfg.Server.Addr = stringutil.EnvOr(cfg.Server.Addr, os.Getenv("RADAR_ADDR"))
	cfg.CityFile = stringutil.EnvOr(cfg.CityFile, os.Getenv("RADAR_CITY_FILE"))

	return cfg.WithDefaults()
}
