package config

import "time"

// DBConfig contains PostgreSQL connection settings for the organization directory.
// The gateway only connects when DIRECTORY_MODE=postgres; the admin CLI always does.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"repo_gateway"`
	Password string `env:"PASSWORD"                envDefault:"repo_gateway"`
	Name     string `env:"NAME"                    envDefault:"repo_gateway"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// Directory lookups are single-row reads, so the pool stays small.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	// RunMigrationsOnStart applies the directory schema before the gateway starts serving.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize clamps pool settings to usable values.
func (c *DBConfig) Sanitize() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime < 0 {
		c.ConnMaxLifetime = 0
	}
}

// RedisConfig contains Redis configuration shared by the API key store and the directory cache.
// Cluster wins over sentinel, which wins over a direct URI.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
