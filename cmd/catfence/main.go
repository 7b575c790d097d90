package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/catfence/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags. Only flags the user set override the
// configuration file and environment.
type options struct {
	configPath string
	envFile    string

	video     string
	device    int
	minArea   int
	width     int
	threshold int
	dilate    int
	cooldown  string
	botToken  string
	channelID string
	listen    string
	journal   string
	broker    string
	tray      bool
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "catfence",
		Short: "Watch a camera for the cat and send an alert when it shows up",
		Long: "catfence compares each frame with the previous one, and when something big enough\n" +
			"moves it posts an annotated snapshot to Discord, MQTT or the log.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with CATFENCE_* variables")
	flags.StringVarP(&opts.video, "video", "v", "", "path to a video file instead of the camera")
	flags.IntVar(&opts.device, "device", 0, "camera device index")
	flags.IntVarP(&opts.minArea, "min-area", "a", 0, "minimum region area in pixels")
	flags.IntVar(&opts.width, "width", 0, "frame width after resizing")
	flags.IntVar(&opts.threshold, "threshold", 0, "per-pixel difference threshold")
	flags.IntVar(&opts.dilate, "dilate", 0, "dilation iterations")
	flags.StringVar(&opts.cooldown, "cooldown", "", "minimum time between alerts, e.g. 10s")
	flags.StringVarP(&opts.botToken, "bot-token", "b", "", "Discord bot token")
	flags.StringVarP(&opts.channelID, "channel-id", "c", "", "Discord channel ID")
	flags.StringVar(&opts.listen, "listen", "", "status server address, e.g. :8080")
	flags.StringVar(&opts.journal, "journal", "", "alert journal database (:memory: keeps it in memory)")
	flags.StringVar(&opts.broker, "mqtt-broker", "", "MQTT broker address")
	flags.BoolVar(&opts.tray, "tray", false, "show a system tray icon")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(newValidateCmd(opts))
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	var printCfg bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if printCfg {
				if cfg.Discord.Token != "" {
					cfg.Discord.Token = "<redacted>"
				}
				out, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				cmd.Print(string(out))
			}
			cmd.Println("configuration OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printCfg, "print", false, "print the effective configuration")
	return cmd
}

// resolve builds the configuration from defaults, the file, the environment and
// finally the flags, and validates it.
func (o *options) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(o.envFile); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("video") {
		cfg.Video = o.video
	}
	if flags.Changed("device") {
		cfg.Device = o.device
	}
	if flags.Changed("min-area") {
		cfg.Motion.MinArea = o.minArea
	}
	if flags.Changed("width") {
		cfg.Motion.Width = o.width
	}
	if flags.Changed("threshold") {
		cfg.Motion.DiffThreshold = o.threshold
	}
	if flags.Changed("dilate") {
		cfg.Motion.DilateIterations = o.dilate
	}
	if flags.Changed("cooldown") {
		d, err := parseDuration(o.cooldown)
		if err != nil {
			return cfg, fmt.Errorf("--cooldown: %w", err)
		}
		cfg.Alert.Cooldown = d
	}
	if flags.Changed("bot-token") {
		cfg.Discord.Token = o.botToken
	}
	if flags.Changed("channel-id") {
		cfg.Discord.ChannelID = o.channelID
	}
	if flags.Changed("listen") {
		cfg.Server.Listen = o.listen
	}
	if flags.Changed("journal") {
		cfg.Journal.Path = o.journal
	}
	if flags.Changed("mqtt-broker") {
		cfg.MQTT.Broker = o.broker
	}
	if flags.Changed("tray") {
		cfg.Tray = o.tray
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// parseDuration accepts a Go duration or a plain number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
