package gtfs

import "time"

const (
	DefaultPollInterval = 30 * time.Second
	DefaultPollTimeout  = 15 * time.Second
)

type Config struct {
	VehiclePositionsURL     string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string
	// RouteIDs maps feed route ids to network route ids. Unmapped ids pass through.
	RouteIDs     map[string]string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func (config Config) realTimeDataEnabled() bool {
	return config.VehiclePositionsURL != ""
}

func (config Config) headers() map[string]string {
	headers := map[string]string{}
	if config.RealTimeAuthHeaderKey != "" && config.RealTimeAuthHeaderValue != "" {
		headers[config.RealTimeAuthHeaderKey] = config.RealTimeAuthHeaderValue
	}
	return headers
}

func (config Config) withDefaults() Config {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultPollTimeout
	}
	return config
}
