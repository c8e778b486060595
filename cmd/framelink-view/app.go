package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "framelink/pkg/channel"
    "framelink/pkg/config"
    "framelink/pkg/consumer"
    "framelink/pkg/observability"
    "framelink/pkg/rendezvous"
    "framelink/pkg/transports"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return 1
    }
    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return 1
    }
    defer func() { _ = logger.Sync() }()

    zap.L().Info("framelink-view started", zap.String("app", cfg.AppName))

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    // The descriptor is read exactly once at startup; when it is missing
    // or unreadable the viewer runs disconnected, with status output only.
    var ch consumer.Channel
    if mgr, err := dialChannel(ctx, cfg); err != nil {
        zap.L().Warn("starting disconnected", zap.Error(err))
    } else {
        ch = consumer.WrapManager(mgr)
    }

    var cons *consumer.Consumer
    var last consumer.Stats
    lastStatus := time.Now()
    onStatus := func(s consumer.Stats) {
        now := time.Now()
        window := now.Sub(lastStatus).Seconds()
        zap.L().Info("status",
            zap.Bool("connected", cons.Connected()),
            zap.Float64("tick_rate", float64(s.Ticks-last.Ticks)/window),
            zap.Float64("recv_rate", float64(s.Received-last.Received)/window),
            zap.Int("received", s.Received),
            zap.Int("skipped", s.Skipped),
            zap.Int16("min", s.MinSample),
            zap.Int16("max", s.MaxSample))
        lastStatus, last = now, s
    }
    cons = consumer.New(ch, consumer.Options{
        Width:          cfg.Field.Width,
        Height:         cfg.Field.Height,
        PollInterval:   time.Duration(cfg.Channel.PollIntervalMS) * time.Millisecond,
        StatusInterval: 2 * time.Second,
        Log:            zap.L(),
        OnStatus:       onStatus,
    })

    if err := cons.Run(ctx); err != nil {
        // Protocol violations are fatal: abort rather than guess.
        zap.L().Error("poll failed", zap.Error(err))
        return 1
    }
    s := cons.Stats()
    zap.L().Info("view finished", zap.Int("received", s.Received), zap.Int("skipped", s.Skipped))
    return 0
}

// dialChannel discovers the published endpoint and connects to it.
func dialChannel(ctx context.Context, cfg *config.Config) (*channel.Manager, error) {
    tr, err := transports.New(cfg.Channel.Transport)
    if err != nil {
        return nil, err
    }
    mgr := channel.New(channel.Options{
        Transport: tr,
        Broker:    rendezvous.NewFileBroker(cfg.Channel.RendezvousPath),
        Width:     cfg.Field.Width,
        Height:    cfg.Field.Height,
        Log:       zap.L(),
    })
    if err := mgr.Connect(ctx); err != nil {
        return nil, err
    }
    return mgr, nil
}
