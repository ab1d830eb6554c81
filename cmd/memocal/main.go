package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"memocal/internal/config"
	"memocal/internal/discord"
	"memocal/internal/dispatch"
	"memocal/internal/gcal"
	appLog "memocal/internal/log"
	"memocal/internal/parse"
	"memocal/internal/reconcile"
	"memocal/internal/store"
	"memocal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	statePath  string
}

func main() {
	appLog.Info("memocal starting", "version", "0.1.0")

	flags := parseFlags()

	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		appLog.Info("loaded .env file")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.statePath != "" {
		conf.StatePath = flags.statePath
	}

	if conf.DiscordToken == "" {
		appLog.Error("DISCORD_TOKEN is not set", nil)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"memo_channel", conf.MemoChannel,
		"trigger_emoji", conf.TriggerEmoji,
		"admin_restricted", conf.AdminUserID != "",
		"state_backend", conf.StateBackend,
		"state_path", conf.StatePath,
		"snapshot", conf.SnapshotCron,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st, err := openStore(conf)
	if err != nil {
		appLog.Error("failed to open state store", err, "state_path", conf.StatePath)
		os.Exit(1)
	}
	defer st.Close()

	client := discord.NewClient(conf.DiscordToken)

	selfID, err := client.Me(ctx)
	if err != nil {
		// The self-filter is a nicety; a failed identity lookup should
		// not keep the bot down.
		appLog.Warn("could not resolve own user id", "err", err)
	}

	loc := conf.Location()
	engine := reconcile.New(client, st, gcal.NewBuilder(loc), loc)
	dispatcher := dispatch.New(dispatch.Options{
		TriggerEmoji: conf.TriggerEmoji,
		ChannelName:  conf.MemoChannel,
		AdminUserID:  conf.AdminUserID,
		SelfUserID:   selfID,
	}, fetcherAdapter{client}, parse.New(loc), engine)

	sched := startSnapshots(conf, st)
	if sched != nil {
		defer sched.Stop()
	}

	if err := web.NewServer(conf, dispatcher).Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("memocal exiting")
}

func openStore(conf *config.Config) (store.Store, error) {
	if conf.StateBackend == "sqlite" {
		return store.OpenSQLite(conf.StatePath)
	}
	return store.OpenJSON(conf.StatePath)
}

// startSnapshots schedules periodic state backups when the configured
// store supports them. Returns nil when disabled.
func startSnapshots(conf *config.Config, st store.Store) *cron.Cron {
	snap, ok := st.(store.Snapshotter)
	if !ok || conf.SnapshotCron == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(conf.SnapshotCron, func() {
		path, err := snap.Snapshot(conf.SnapshotDir)
		if err != nil {
			appLog.Error("state snapshot failed", err, "dir", conf.SnapshotDir)
			return
		}
		appLog.Info("state snapshot written", "path", path)
	})
	if err != nil {
		appLog.Error("invalid snapshot schedule", err, "spec", conf.SnapshotCron)
		return nil
	}
	c.Start()
	return c
}

// fetcherAdapter narrows the Discord client to the dispatcher's contract,
// folding "message gone or unreadable" into a quiet miss.
type fetcherAdapter struct {
	client *discord.Client
}

func (f fetcherAdapter) FetchMessage(ctx context.Context, channelID, messageID string) (dispatch.Message, bool, error) {
	msg, err := f.client.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		if errors.Is(err, reconcile.ErrArtifactNotFound) {
			return dispatch.Message{}, false, nil
		}
		return dispatch.Message{}, false, err
	}
	return dispatch.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		AuthorID:  msg.Author.ID,
	}, true, nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "memocal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.statePath, "state", "", "State file path (overrides config if set)")

	flag.Parse()

	return cfg
}
