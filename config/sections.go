package config

import "time"

// Database dialect identifiers, referenced by config.Database.Type and by
// each dialect-specific Init() to decide whether it is the active backend.
const (
	DBSqlite   = "sqlite"
	DBPostgres = "postgres"
	DBMySQL    = "mysql"
)

// AppInfo carries process identity. Nothing outside the config package reads
// it; /-/healthz reports only a status.
type AppInfo struct {
	Name string `json:"name" mapstructure:"name" ini:"name" yaml:"name"`
	Mode string `json:"mode" mapstructure:"mode" ini:"mode" yaml:"mode"` // debug | release
}

func (c *AppInfo) setDefault() {
	cv.SetDefault("app.name", "crud6")
	cv.SetDefault("app.mode", "release")
}

// Server carries the gin HTTP listener configuration.
type Server struct {
	Domain          string        `json:"domain" mapstructure:"domain" ini:"domain" yaml:"domain"`
	Listen          string        `json:"listen" mapstructure:"listen" ini:"listen" yaml:"listen"`
	Port            int           `json:"port" mapstructure:"port" ini:"port" yaml:"port"`
	DB              string        `json:"db" mapstructure:"db" ini:"db" yaml:"db"` // not read by database.Connection, which uses database.Default when a schema omits "connection"
	CertFile        string        `json:"cert_file" mapstructure:"cert_file" ini:"cert_file" yaml:"cert_file"`
	KeyFile         string        `json:"key_file" mapstructure:"key_file" ini:"key_file" yaml:"key_file"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" ini:"shutdown_timeout" yaml:"shutdown_timeout"`

	CircuitBreaker CircuitBreaker `json:"circuit_breaker" mapstructure:"circuit_breaker" ini:"circuit_breaker" yaml:"circuit_breaker"`
}

func (c *Server) setDefault() {
	cv.SetDefault("server.domain", "")
	cv.SetDefault("server.listen", "0.0.0.0")
	cv.SetDefault("server.port", 8080)
	cv.SetDefault("server.db", "")
	cv.SetDefault("server.shutdown_timeout", 15*time.Second)
	c.CircuitBreaker.setDefault()
}

// CircuitBreaker carries middleware.Init's github.com/sony/gobreaker
// settings. middleware.Init builds the breaker from them; no route or
// handler runs through it.
type CircuitBreaker struct {
	Name        string        `json:"name" mapstructure:"name" ini:"name" yaml:"name"`
	MaxRequests uint32        `json:"max_requests" mapstructure:"max_requests" ini:"max_requests" yaml:"max_requests"`
	MinRequests uint32        `json:"min_requests" mapstructure:"min_requests" ini:"min_requests" yaml:"min_requests"`
	FailureRate float64       `json:"failure_rate" mapstructure:"failure_rate" ini:"failure_rate" yaml:"failure_rate"`
	Interval    time.Duration `json:"interval" mapstructure:"interval" ini:"interval" yaml:"interval"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout" ini:"timeout" yaml:"timeout"`
}

func (c *CircuitBreaker) setDefault() {
	cv.SetDefault("server.circuit_breaker.name", "crud6")
	cv.SetDefault("server.circuit_breaker.max_requests", uint32(5))
	cv.SetDefault("server.circuit_breaker.min_requests", uint32(10))
	cv.SetDefault("server.circuit_breaker.failure_rate", 0.6)
	cv.SetDefault("server.circuit_breaker.interval", 60*time.Second)
	cv.SetDefault("server.circuit_breaker.timeout", 30*time.Second)
}

// Auth carries JWT issuing/verification settings (authn/jwt).
type Auth struct {
	Enable          bool          `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	SigningMethod   string        `json:"signing_method" mapstructure:"signing_method" ini:"signing_method" yaml:"signing_method"`
	SigningKey      string        `json:"signing_key" mapstructure:"signing_key" ini:"signing_key" yaml:"signing_key"`
	TokenExpire     time.Duration `json:"token_expire" mapstructure:"token_expire" ini:"token_expire" yaml:"token_expire"`
	RefreshExpire   time.Duration `json:"refresh_expire" mapstructure:"refresh_expire" ini:"refresh_expire" yaml:"refresh_expire"`
	NoneExpireToken string        `json:"none_expire_token" mapstructure:"none_expire_token" ini:"none_expire_token" yaml:"none_expire_token"`
}

func (c *Auth) setDefault() {
	cv.SetDefault("auth.enable", true)
	cv.SetDefault("auth.signing_method", "HS256")
	cv.SetDefault("auth.signing_key", "crud6-dev-signing-key")
	cv.SetDefault("auth.token_expire", 2*time.Hour)
	cv.SetDefault("auth.refresh_expire", 24*time.Hour)
	cv.SetDefault("auth.none_expire_token", noneExpireToken)
}

// Database carries dialect-independent pool tuning and the active dialect
// selector: the enabled one of Sqlite/Postgres/MySQL equal to Type becomes
// database.Default, which serves every schema that omits "connection". A
// named "connection" resolves only through database.Register; no dialect
// Init registers its pool under a name.
type Database struct {
	Type            string        `json:"type" mapstructure:"type" ini:"type" yaml:"type"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns" ini:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns" ini:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime" ini:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time" ini:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

func (c *Database) setDefault() {
	cv.SetDefault("database.type", DBSqlite)
	cv.SetDefault("database.max_idle_conns", 10)
	cv.SetDefault("database.max_open_conns", 100)
	cv.SetDefault("database.conn_max_lifetime", time.Hour)
	cv.SetDefault("database.conn_max_idle_time", 30*time.Minute)
}

// Sqlite carries database/sqlite's connection settings.
type Sqlite struct {
	Enable   bool   `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Path     string `json:"path" mapstructure:"path" ini:"path" yaml:"path"`
	Database string `json:"database" mapstructure:"database" ini:"database" yaml:"database"`
	IsMemory bool   `json:"is_memory" mapstructure:"is_memory" ini:"is_memory" yaml:"is_memory"`
}

func (c *Sqlite) setDefault() {
	cv.SetDefault("sqlite.enable", true)
	cv.SetDefault("sqlite.path", "crud6.db")
	cv.SetDefault("sqlite.database", "crud6")
	cv.SetDefault("sqlite.is_memory", false)
}

// Postgres carries database/postgres's connection settings.
type Postgres struct {
	Enable   bool   `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Host     string `json:"host" mapstructure:"host" ini:"host" yaml:"host"`
	Port     int    `json:"port" mapstructure:"port" ini:"port" yaml:"port"`
	Username string `json:"username" mapstructure:"username" ini:"username" yaml:"username"`
	Password string `json:"password" mapstructure:"password" ini:"password" yaml:"password"`
	Database string `json:"database" mapstructure:"database" ini:"database" yaml:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode" ini:"sslmode" yaml:"sslmode"`
	TimeZone string `json:"timezone" mapstructure:"timezone" ini:"timezone" yaml:"timezone"`
}

func (c *Postgres) setDefault() {
	cv.SetDefault("postgres.enable", false)
	cv.SetDefault("postgres.host", "127.0.0.1")
	cv.SetDefault("postgres.port", 5432)
	cv.SetDefault("postgres.username", "postgres")
	cv.SetDefault("postgres.password", "")
	cv.SetDefault("postgres.database", "crud6")
	cv.SetDefault("postgres.sslmode", "disable")
	cv.SetDefault("postgres.timezone", "UTC")
}

// MySQL carries database/mysql's connection settings.
type MySQL struct {
	Enable    bool   `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Host      string `json:"host" mapstructure:"host" ini:"host" yaml:"host"`
	Port      int    `json:"port" mapstructure:"port" ini:"port" yaml:"port"`
	Username  string `json:"username" mapstructure:"username" ini:"username" yaml:"username"`
	Password  string `json:"password" mapstructure:"password" ini:"password" yaml:"password"`
	Database  string `json:"database" mapstructure:"database" ini:"database" yaml:"database"`
	Charset   string `json:"charset" mapstructure:"charset" ini:"charset" yaml:"charset"`
	ParseTime bool   `json:"parse_time" mapstructure:"parse_time" ini:"parse_time" yaml:"parse_time"`
	Loc       string `json:"loc" mapstructure:"loc" ini:"loc" yaml:"loc"`
}

func (c *MySQL) setDefault() {
	cv.SetDefault("mysql.enable", false)
	cv.SetDefault("mysql.host", "127.0.0.1")
	cv.SetDefault("mysql.port", 3306)
	cv.SetDefault("mysql.username", "root")
	cv.SetDefault("mysql.password", "")
	cv.SetDefault("mysql.database", "crud6")
	cv.SetDefault("mysql.charset", "utf8mb4")
	cv.SetDefault("mysql.parse_time", true)
	cv.SetDefault("mysql.loc", "Local")
}

// Redis carries provider/redis's connection settings, used as the backend
// of the optional list-page cache.
type Redis struct {
	Enable     bool          `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Addr       string        `json:"addr" mapstructure:"addr" ini:"addr" yaml:"addr"`
	Password   string        `json:"password" mapstructure:"password" ini:"password" yaml:"password"`
	DB         int           `json:"db" mapstructure:"db" ini:"db" yaml:"db"`
	Expiration time.Duration `json:"expiration" mapstructure:"expiration" ini:"expiration" yaml:"expiration"`
}

func (c *Redis) setDefault() {
	cv.SetDefault("redis.enable", false)
	cv.SetDefault("redis.addr", "127.0.0.1:6379")
	cv.SetDefault("redis.password", "")
	cv.SetDefault("redis.db", 0)
	cv.SetDefault("redis.expiration", 8*time.Hour)
}

// Cache carries the cache.enable/cache.ttl settings. Nothing in the module
// reads them: the schema Loader's sync.Map cache has no size or TTL bound,
// and no handler keeps a row cache.
type Cache struct {
	Enable bool          `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	TTL    time.Duration `json:"ttl" mapstructure:"ttl" ini:"ttl" yaml:"ttl"`
}

func (c *Cache) setDefault() {
	cv.SetDefault("cache.enable", true)
	cv.SetDefault("cache.ttl", 5*time.Minute)
}

// OTEL carries OTLP/gRPC trace export settings (provider/otel).
type OTEL struct {
	Enable         bool    `json:"enable" mapstructure:"enable" ini:"enable" yaml:"enable"`
	Endpoint       string  `json:"endpoint" mapstructure:"endpoint" ini:"endpoint" yaml:"endpoint"`
	ServiceName    string  `json:"service_name" mapstructure:"service_name" ini:"service_name" yaml:"service_name"`
	ServiceVersion string  `json:"service_version" mapstructure:"service_version" ini:"service_version" yaml:"service_version"`
	SampleRatio    float64 `json:"sample_ratio" mapstructure:"sample_ratio" ini:"sample_ratio" yaml:"sample_ratio"`
}

func (c *OTEL) setDefault() {
	cv.SetDefault("otel.enable", false)
	cv.SetDefault("otel.endpoint", "")
	cv.SetDefault("otel.service_name", "crud6")
	cv.SetDefault("otel.service_version", "dev")
	cv.SetDefault("otel.sample_ratio", 1.0)
}

// Logger carries logger/zap's sink and rotation settings.
type Logger struct {
	Level      string `json:"level" mapstructure:"level" ini:"level" yaml:"level"`
	Format     string `json:"format" mapstructure:"format" ini:"format" yaml:"format"` // json | console
	File       string `json:"file" mapstructure:"file" ini:"file" yaml:"file"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size" ini:"max_size" yaml:"max_size"` // MB
	MaxAge     int    `json:"max_age" mapstructure:"max_age" ini:"max_age" yaml:"max_age"`     // days
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups" ini:"max_backups" yaml:"max_backups"`
	Compress   bool   `json:"compress" mapstructure:"compress" ini:"compress" yaml:"compress"`
	Stdout     bool   `json:"stdout" mapstructure:"stdout" ini:"stdout" yaml:"stdout"`
}

func (c *Logger) setDefault() {
	cv.SetDefault("logger.level", "info")
	cv.SetDefault("logger.format", "json")
	cv.SetDefault("logger.file", "crud6.log")
	cv.SetDefault("logger.max_size", 100)
	cv.SetDefault("logger.max_age", 7)
	cv.SetDefault("logger.max_backups", 10)
	cv.SetDefault("logger.compress", true)
	cv.SetDefault("logger.stdout", true)
}

// Crud6 carries the schema-driven core's own settings: where schema files
// live, and the list-page size bounds sprunje enforces.
type Crud6 struct {
	SchemaDir       string        `json:"schema_dir" mapstructure:"schema_dir" ini:"schema_dir" yaml:"schema_dir"`
	DefaultPageSize int           `json:"default_page_size" mapstructure:"default_page_size" ini:"default_page_size" yaml:"default_page_size"`
	MaxPageSize     int           `json:"max_page_size" mapstructure:"max_page_size" ini:"max_page_size" yaml:"max_page_size"`
	DebugMode       bool          `json:"debug_mode" mapstructure:"debug_mode" ini:"debug_mode" yaml:"debug_mode"`
	RequestTimeout  time.Duration `json:"request_timeout" mapstructure:"request_timeout" ini:"request_timeout" yaml:"request_timeout"`
}

func (c *Crud6) setDefault() {
	cv.SetDefault("crud6.schema_dir", "./schemas")
	cv.SetDefault("crud6.default_page_size", 10)
	cv.SetDefault("crud6.max_page_size", 100)
	cv.SetDefault("crud6.debug_mode", false)
	cv.SetDefault("crud6.request_timeout", 30*time.Second)
}
