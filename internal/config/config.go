// Package config holds the catfence runtime configuration: defaults, the optional YAML
// file, environment overrides and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/capture"
	"github.com/ayusman/catfence/internal/logging"
	"github.com/ayusman/catfence/internal/motion"
)

// Environment variables that override the file.
const (
	EnvDiscordToken   = "CATFENCE_DISCORD_TOKEN"
	EnvDiscordChannel = "CATFENCE_DISCORD_CHANNEL"
	EnvMQTTBroker     = "CATFENCE_MQTT_BROKER"
	EnvVideo          = "CATFENCE_VIDEO"
	EnvLogLevel       = "CATFENCE_LOG_LEVEL"
)

// MemoryJournal keeps the alert journal for the lifetime of the process only.
const MemoryJournal = ":memory:"

// Config is the complete catfence configuration.
type Config struct {
	// Video is a recorded file to read instead of the camera.
	Video  string       `yaml:"video"`
	Device int          `yaml:"device"`
	Camera CameraConfig `yaml:"camera"`
	// Warmup is how long a live camera is given before the first read.
	Warmup        time.Duration `yaml:"warmup"`
	FrameInterval time.Duration `yaml:"frame_interval"`

	Motion  motion.Params `yaml:"motion"`
	Alert   AlertConfig   `yaml:"alert"`
	Discord DiscordConfig `yaml:"discord"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Server  ServerConfig  `yaml:"server"`
	Journal JournalConfig `yaml:"journal"`
	Plugins PluginsConfig `yaml:"plugins"`
	Tray    bool          `yaml:"tray"`
	Log     LogConfig     `yaml:"log"`
}

// CameraConfig is the capture mode requested from a live device.
type CameraConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// AlertConfig controls the throttle and the alert payload.
type AlertConfig struct {
	Cooldown    time.Duration `yaml:"cooldown"`
	Caption     string        `yaml:"caption"`
	Description string        `yaml:"description"`
	Annotate    bool          `yaml:"annotate"`
}

// DiscordConfig enables the Discord notifier and command listener.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
	// AllowedUsers restricts who may issue commands. Empty allows anyone in the channel.
	AllowedUsers []string `yaml:"allowed_users"`
}

// Enabled reports whether Discord is configured.
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

// MQTTConfig enables the MQTT notifier.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// ServerConfig controls the status server. An empty Listen disables it.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// JournalConfig controls the alert journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// PluginsConfig selects the deterrent plugin.
type PluginsConfig struct {
	Dir       string        `yaml:"dir"`
	Deterrent string        `yaml:"deterrent"`
	Action    string        `yaml:"action"`
	Sound     string        `yaml:"sound"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Warmup:        2 * time.Second,
		FrameInterval: time.Second,
		Camera: CameraConfig{
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			FPS:    capture.DefaultFPS,
		},
		Motion: motion.DefaultParams(),
		Alert: AlertConfig{
			Cooldown:    alert.DefaultCooldown,
			Caption:     alert.DefaultCaption,
			Description: alert.DefaultDescription,
			Annotate:    true,
		},
		MQTT: MQTTConfig{
			Topic:    "catfence",
			ClientID: "catfence",
			QoS:      1,
		},
		Journal: JournalConfig{Path: MemoryJournal},
		Plugins: PluginsConfig{
			Dir:       "plugins",
			Deterrent: "scare",
			Action:    "play",
			Sound:     "tableflip.wav",
			Timeout:   10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv loads envFile, if it exists, into the process environment and then applies
// the CATFENCE_* overrides. Variables already set in the environment win over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvDiscordToken); ok {
		c.Discord.Token = v
	}
	if v, ok := os.LookupEnv(EnvDiscordChannel); ok {
		c.Discord.ChannelID = v
	}
	if v, ok := os.LookupEnv(EnvMQTTBroker); ok {
		c.MQTT.Broker = v
	}
	if v, ok := os.LookupEnv(EnvVideo); ok {
		c.Video = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.Motion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Alert.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("alert.cooldown must not be negative, got %s", c.Alert.Cooldown))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %s", c.Warmup))
	}
	if c.FrameInterval < 0 {
		errs = append(errs, fmt.Errorf("frame_interval must not be negative, got %s", c.FrameInterval))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera.width and camera.height must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Device < 0 {
		errs = append(errs, fmt.Errorf("device must not be negative, got %d", c.Device))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if c.MQTT.Broker != "" && strings.TrimSpace(c.MQTT.Topic) == "" {
		errs = append(errs, errors.New("mqtt.topic is required when mqtt.broker is set"))
	}
	if (c.Discord.Token == "") != (c.Discord.ChannelID == "") {
		errs = append(errs, errors.New("discord.token and discord.channel_id must be set together"))
	}
	if c.Discord.ChannelID != "" {
		if _, err := strconv.ParseUint(c.Discord.ChannelID, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("discord.channel_id must be a numeric snowflake, got %q", c.Discord.ChannelID))
		}
	}
	if c.Plugins.Timeout < 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout must not be negative, got %s", c.Plugins.Timeout))
	}

	return errors.Join(errs...)
}

// UsesCamera reports whether frames come from a live device.
func (c Config) UsesCamera() bool {
	return c.Video == ""
}
