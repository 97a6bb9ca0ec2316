package config

// RedisConfig configures the optional pub/sub notifier that publishes a
// "zone reloaded" message whenever a Staging reload completes, so other
// resolver instances sharing the same triggers can invalidate their own
// find_name/find_ip caches. A zero-value RedisConfig (empty Address)
// leaves the notifier disabled.
type RedisConfig struct {
	Address            string   `yaml:"address"`
	Username           string   `yaml:"username" default:""`
	Password           string   `yaml:"password" default:""`
	Database           int      `yaml:"database" default:"0"`
	Required           bool     `yaml:"required" default:"false"`
	ConnectionAttempts int      `yaml:"connectionAttempts" default:"3"`
	ConnectionCooldown Duration `yaml:"connectionCooldown" default:"1s"`
	SentinelUsername   string   `yaml:"sentinelUsername" default:""`
	SentinelPassword   string   `yaml:"sentinelPassword" default:""`
	SentinelAddresses  []string `yaml:"sentinelAddresses"`
}

// Enabled reports whether a redis connection should be established.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}
