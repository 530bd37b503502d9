package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tunermason/SC/internal/server"
	"github.com/tunermason/SC/internal/services/call"
	"github.com/tunermason/SC/internal/services/liveness"
)

const configFile = "config.yaml"

// Config holds runtime options. Per-user settings live in the database.
type Config struct {
	Home              string        `yaml:"home"`
	ListenAddress     string        `yaml:"listen_address"`
	Port              int           `yaml:"port"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	ResponseTimeout   time.Duration `yaml:"response_timeout"`
	AnswerTimeout     time.Duration `yaml:"answer_timeout"`
	FirstFrameTimeout time.Duration `yaml:"first_frame_timeout"`
	ICEServers        []ICEServer   `yaml:"ice_servers"`
}

// ICEServer is one STUN or TURN server.
type ICEServer struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	t := call.DefaultTimeouts()
	return Config{
		Home:              defaultHome(),
		ListenAddress:     "",
		Port:              server.DefaultPort,
		LogLevel:          "info",
		LogFormat:         "text",
		SweepInterval:     time.Minute,
		ResponseTimeout:   t.Response,
		AnswerTimeout:     t.Answer,
		FirstFrameTimeout: server.DefaultFirstFrameTimeout,
	}
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".sc"
	}
	return filepath.Join(dir, ".sc")
}

// RegisterFlags declares the flags ApplyFlags understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default <home>/config.yaml)")
	fs.String("home", "", "data directory (default ~/.sc)")
	fs.String("listen-address", "", "address to listen on (default all interfaces)")
	fs.Int("port", 0, "signaling port (default 10001)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: text or json")
}

// Load applies defaults, then the config file, then every flag set on fs.
// A missing file is only an error when --config named it explicitly.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	path, _ := fs.GetString("config")
	explicit := path != ""
	if !explicit {
		home := cfg.Home
		if f := fs.Lookup("home"); f != nil && f.Changed {
			home = f.Value.String()
		}
		path = filepath.Join(home, configFile)
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyFlags overrides c with every flag explicitly set on fs.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "home":
			c.Home = f.Value.String()
		case "listen-address":
			c.ListenAddress = f.Value.String()
		case "port":
			c.Port, err = fs.GetInt("port")
		case "log-level":
			c.LogLevel = f.Value.String()
		case "log-format":
			c.LogFormat = f.Value.String()
		}
	})
	return err
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Home == "" {
		return errors.New("home directory not set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	for name, d := range map[string]time.Duration{
		"response_timeout":    c.ResponseTimeout,
		"answer_timeout":      c.AnswerTimeout,
		"first_frame_timeout": c.FirstFrameTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Addr is the host:port the server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.Port)
}

// Timeouts returns the call timeouts derived from c.
func (c Config) Timeouts() call.Timeouts {
	t := call.DefaultTimeouts()
	t.Response = c.ResponseTimeout
	t.Answer = c.AnswerTimeout
	return t
}

// PingTimeout bounds a liveness ping.
func (c Config) PingTimeout() time.Duration {
	if c.ResponseTimeout > 0 {
		return c.ResponseTimeout
	}
	return liveness.DefaultResponseTimeout
}

func (c Config) webrtcICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		out = append(out, webrtc.ICEServer{URLs: s.URLs, Username: s.Username, Credential: s.Credential})
	}
	return out
}
