package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/app"
	"github.com/ayusman/catfence/internal/capture"
	"github.com/ayusman/catfence/internal/command"
	"github.com/ayusman/catfence/internal/config"
	"github.com/ayusman/catfence/internal/logging"
	"github.com/ayusman/catfence/internal/motion"
	"github.com/ayusman/catfence/internal/notify"
	"github.com/ayusman/catfence/internal/plugin"
	"github.com/ayusman/catfence/internal/server"
	"github.com/ayusman/catfence/internal/store"
	"github.com/ayusman/catfence/internal/tray"
)

// errQuit is the cancellation cause when the operator asks to stop.
var errQuit = errors.New("quit requested")

func run(parent context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(sigCtx)
	defer cancel(nil)

	go watchStdin(os.Stdin, func() { cancel(errQuit) })

	st, err := openJournal(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var session *discordgo.Session
	if cfg.Discord.Enabled() {
		if session, err = notify.NewSession(cfg.Discord.Token); err != nil {
			return err
		}
	}

	notifier, cleanup, err := buildNotifiers(cfg, session, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var (
		source     capture.Source
		sourceName string
	)
	if cfg.UsesCamera() {
		cam := capture.NewCamera(cfg.Device)
		cam.SetResolution(cfg.Camera.Width, cfg.Camera.Height)
		cam.SetFPS(cfg.Camera.FPS)
		source = cam
		sourceName = fmt.Sprintf("camera %d", cfg.Device)
	} else {
		source = capture.NewFile(cfg.Video)
		sourceName = cfg.Video
	}

	det := motion.NewDetector(cfg.Motion)
	defer det.Close()

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New()
	}

	var hub *server.Hub
	var frames *server.FrameBuffer
	if cfg.Server.Listen != "" {
		hub = server.NewHub(log.Named("events"))
		frames = server.NewFrameBuffer()
		defer hub.Close()
	}

	watcher := app.New(app.Config{
		Source:   source,
		Detector: det,
		Alerter: alert.NewAlerter(alert.Options{
			Cooldown:    cfg.Alert.Cooldown,
			Caption:     cfg.Alert.Caption,
			Description: cfg.Alert.Description,
			Annotate:    cfg.Alert.Annotate,
			Notifier:    notifier,
			Counters:    &alert.Counters{},
			Journal:     st.Alerts(),
			Logger:      log.Named("alert"),
		}),
		Events:        hub,
		Frames:        frames,
		SourceName:    sourceName,
		Warmup:        cfg.Warmup,
		FrameInterval: cfg.FrameInterval,
		OnPause: func(paused bool) {
			if t != nil {
				t.SetWatching(!paused)
			}
		},
		OnAlert: func(_ alert.Outcome, at time.Time) {
			if t != nil {
				t.SetLastAlert(at.Format("15:04:05"))
			}
		},
		Logger: log.Named("app"),
	})

	registry := command.Defaults(watcher.Controller(), buildDeterrent(cfg.Plugins, log))

	if session != nil {
		closeListener, err := listenDiscord(ctx, session, cfg.Discord, registry, log)
		if err != nil {
			return err
		}
		defer closeListener()
	}

	var wg sync.WaitGroup
	if cfg.Server.Listen != "" {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Status:    watcher.StatusProvider(),
			Alerts:    st.Alerts(),
			Events:    hub,
			Frames:    frames,
			Logger:    log.Named("server"),
		}).HTTPServer(cfg.Server.Listen)

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("status server listening", zap.String("addr", cfg.Server.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("status server shutdown", zap.Error(err))
			}
			wg.Wait()
		}()
	}

	if t == nil {
		return watcher.Run(ctx)
	}

	// The tray needs the main goroutine; the watch loop moves off it.
	t.OnToggle(func(watching bool) { watcher.SetPaused(!watching) })
	t.OnQuit(func() { cancel(errQuit) })

	runErr := make(chan error, 1)
	go func() {
		err := watcher.Run(ctx)
		t.Quit()
		runErr <- err
	}()
	t.Run()
	cancel(errQuit)
	return <-runErr
}

// watchStdin calls quit when a line reading "q" arrives.
func watchStdin(r io.Reader, quit func()) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
			quit()
			return
		}
	}
}

func openJournal(path string) (*store.Store, error) {
	if path != config.MemoryJournal {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return st, nil
}

// buildNotifiers connects every configured sink. The log sink is used alone when
// nothing else is configured.
func buildNotifiers(cfg config.Config, session *discordgo.Session, log *zap.Logger) (alert.Notifier, func(), error) {
	var sinks []notify.Named
	cleanup := func() {}

	if session != nil {
		sinks = append(sinks, notify.Named{Name: "discord", Notifier: notify.NewDiscord(session, cfg.Discord.ChannelID)})
	}

	if cfg.MQTT.Broker != "" {
		opts := notify.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}
		client, err := notify.ConnectMQTT(opts, log.Named("mqtt"))
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { client.Disconnect(250) }
		sinks = append(sinks, notify.Named{Name: "mqtt", Notifier: notify.NewMQTT(client, opts)})
	}

	if len(sinks) == 0 {
		log.Info("no notifier configured, alerts go to the log")
		sinks = append(sinks, notify.Named{Name: "log", Notifier: notify.NewLog(log.Named("notify"))})
	}
	return notify.NewFanout(sinks...), cleanup, nil
}

// buildDeterrent returns nil when the deterrent plugin is not installed.
func buildDeterrent(cfg config.PluginsConfig, log *zap.Logger) command.Deterrent {
	manager := plugin.NewManager(cfg.Dir, log.Named("plugins"))
	if err := manager.Discover(); err != nil {
		log.Warn("plugin discovery failed", zap.Error(err))
		return nil
	}

	var names []string
	for _, p := range manager.List() {
		names = append(names, p.Manifest.Name)
	}
	log.Info("plugins discovered", zap.String("dir", manager.PluginDir()), zap.Strings("plugins", names))

	if _, err := manager.Get(cfg.Deterrent); err != nil {
		log.Info("deterrent not installed", zap.String("plugin", cfg.Deterrent), zap.String("dir", manager.PluginDir()))
		return nil
	}
	return plugin.NewDeterrent(manager, plugin.NewExecutor(cfg.Timeout), plugin.DeterrentOptions{
		Plugin: cfg.Deterrent,
		Action: cfg.Action,
		Sound:  cfg.Sound,
	}, log.Named("deterrent"))
}

// listenDiscord opens the gateway and feeds channel messages to the registry.
func listenDiscord(ctx context.Context, session *discordgo.Session, cfg config.DiscordConfig, registry *command.Registry, log *zap.Logger) (func(), error) {
	listener := notify.NewListener(ctx, session, registry, cfg.ChannelID, cfg.AllowedUsers, log.Named("discord"))
	session.AddHandler(listener.OnMessageCreate)

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord gateway: %w", err)
	}
	log.Info("listening for discord commands", zap.String("channel_id", cfg.ChannelID))

	return func() {
		if err := session.Close(); err != nil {
			log.Warn("discord close", zap.Error(err))
		}
	}, nil
}

// findWebDir searches for the status page assets in "web", "../web" and
// ~/.catfence/web. Returns an empty string if none exists.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".catfence", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
