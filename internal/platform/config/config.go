package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultShutdownTimeout  = 10 * time.Second
	defaultAuditConcurrency = 4
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は HTTP サーバーとヘルスチェック用 gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	GRPCListenAddr     string        `yaml:"grpc_listen_addr"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	AccessLog          bool          `yaml:"access_log"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuditConfig は給与明細監査の除外条件です。
type AuditConfig struct {
	// ExcludedWorkplaceID は在籍月の計算から除外する仮の勤務先 ID です。
	ExcludedWorkplaceID  string   `yaml:"excluded_workplace_id"`
	ExcludedLeaveTypeIDs []string `yaml:"excluded_leave_type_ids"`
	Concurrency          int      `yaml:"concurrency"`
}

// LogConfig はログ出力に関する設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolvePath は -config フラグ、CONFIG_PATH、既定値の順で設定ファイルのパスを決定します。
func ResolvePath(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("CONFIG_PATH")); v != "" {
		return v
	}
	return "assets/local.yaml"
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Audit.validateAndNormalize(); err != nil {
		return err
	}
	return c.Log.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if s.GRPCListenAddr != "" && s.GRPCListenAddr == s.ListenAddr {
		return fmt.Errorf("config: server.grpc_listen_addr must differ from server.listen_addr")
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	s.ShutdownTimeout = timeout

	origins := s.CORSAllowedOrigins[:0]
	for _, o := range s.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	s.CORSAllowedOrigins = origins
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (a *AuditConfig) validateAndNormalize() error {
	a.ExcludedWorkplaceID = strings.TrimSpace(a.ExcludedWorkplaceID)

	seen := make(map[string]struct{}, len(a.ExcludedLeaveTypeIDs))
	ids := make([]string, 0, len(a.ExcludedLeaveTypeIDs))
	for _, id := range a.ExcludedLeaveTypeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("config: audit.excluded_leave_type_ids must not contain blank values")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	a.ExcludedLeaveTypeIDs = ids

	if a.Concurrency < 0 {
		return fmt.Errorf("config: audit.concurrency must not be negative")
	}
	if a.Concurrency == 0 {
		a.Concurrency = defaultAuditConcurrency
	}
	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	switch l.Level {
	case "":
		l.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is not supported", l.Format)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報はエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
