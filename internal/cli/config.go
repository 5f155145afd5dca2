package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/pathwaygraph/pkg/layout"
	"github.com/matzehuels/pathwaygraph/pkg/measure"
	"github.com/matzehuels/pathwaygraph/pkg/pipeline"
	"github.com/matzehuels/pathwaygraph/pkg/session"
)

// =============================================================================
// Config File
// =============================================================================

// Config is the optional TOML configuration file. Command-line flags
// override the values it sets.
//
//	[layout]
//	engine = "layered"
//	viewport_width = 1200
//
//	[server]
//	addr = ":8080"
//	sessions = "redis"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Measure MeasureConfig `toml:"measure"`
	Server  ServerConfig  `toml:"server"`
	Cache   CacheConfig   `toml:"cache"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Engine        string  `toml:"engine" validate:"omitempty,oneof=dot layered"`
	ViewportWidth float64 `toml:"viewport_width" validate:"gte=0"`
	YOffset       float64 `toml:"y_offset"`
	RankSep       float64 `toml:"rank_sep" validate:"gte=0"`
	NodeSep       float64 `toml:"node_sep" validate:"gte=0"`
}

// MeasureConfig holds the text measurer metrics used when no host reports
// real node sizes.
type MeasureConfig struct {
	CharWidth        float64 `toml:"char_width" validate:"gte=0"`
	LineHeight       float64 `toml:"line_height" validate:"gte=0"`
	DetailLineHeight float64 `toml:"detail_line_height" validate:"gte=0"`
	Padding          float64 `toml:"padding"`
	MinWidth         float64 `toml:"min_width" validate:"gte=0"`
	MaxWidth         float64 `toml:"max_width" validate:"gte=0"`
}

// ServerConfig holds `pathwaygraph serve` settings.
type ServerConfig struct {
	Addr        string `toml:"addr" validate:"required,hostname_port"`
	Sessions    string `toml:"sessions" validate:"oneof=memory file redis"`
	SessionDir  string `toml:"session_dir"`
	SessionTTL  string `toml:"session_ttl"`
	PathwaysDir string `toml:"pathways_dir"`
	Metrics     bool   `toml:"metrics"`

	MongoURI        string `toml:"mongo_uri" validate:"omitempty,uri"`
	MongoDatabase   string `toml:"mongo_database" validate:"required_with=MongoURI"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend" validate:"oneof=file memory redis none"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"gte=0"`
	Prefix        string `toml:"prefix"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{
			Engine:        pipeline.DefaultEngine,
			ViewportWidth: layout.DefaultViewportWidth,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			Sessions:        "memory",
			SessionTTL:      session.DefaultTTL.String(),
			Metrics:         true,
			MongoCollection: "pathways",
		},
		Cache: CacheConfig{
			Backend: "file",
			Prefix:  appName + ":",
		},
	}
}

// validate is a singleton validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and the cross-section rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if _, err := c.Server.TTL(); err != nil {
		return err
	}
	if c.Server.Sessions == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("server.sessions: redis sessions need cache.redis_addr")
	}
	return nil
}

// formatValidationError reports the first failing field by its TOML path,
// e.g. "server.addr".
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch e.Tag() {
	case "required", "required_if", "required_with":
		return fmt.Errorf("%s: field is required", field)
	case "oneof":
		return fmt.Errorf("%s: must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "gte":
		return fmt.Errorf("%s: must be at least %s", field, e.Param())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}

// TTL parses the session TTL. Empty means session.DefaultTTL.
func (s ServerConfig) TTL() (time.Duration, error) {
	if s.SessionTTL == "" {
		return session.DefaultTTL, nil
	}
	d, err := time.ParseDuration(s.SessionTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("server.session_ttl: invalid duration %q", s.SessionTTL)
	}
	return d, nil
}

// TextOptions converts the measure section for [measure.NewText].
func (m MeasureConfig) TextOptions() measure.TextOptions {
	return measure.TextOptions{
		CharWidth:        m.CharWidth,
		LineHeight:       m.LineHeight,
		DetailLineHeight: m.DetailLineHeight,
		Padding:          m.Padding,
		MinWidth:         m.MinWidth,
		MaxWidth:         m.MaxWidth,
	}
}

// EngineOptions converts the layout section for [pipeline.NewEngineWithOptions].
func (l LayoutConfig) EngineOptions() pipeline.EngineOptions {
	return pipeline.EngineOptions{RankSep: l.RankSep, NodeSep: l.NodeSep}
}

// LoadConfig reads path over the defaults. An empty path means the default
// location, which may be missing; an explicit path must exist. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// configPath returns the config file location using XDG standard
// (~/.config/pathwaygraph/config.toml).
func configPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
