package main

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "framelink/pkg/channel"
    "framelink/pkg/config"
    "framelink/pkg/field"
    "framelink/pkg/observability"
    "framelink/pkg/producer"
    "framelink/pkg/rendezvous"
    "framelink/pkg/transports"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    if opts.ShowVersion {
        fmt.Println(version)
        return 0
    }
    if opts.ShowHelp {
        fmt.Println(usage)
        return 0
    }

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

    zap.L().Info("framelink-compute started", zap.String("app", cfg.AppName))

    group, err := field.NewGroup(cfg.Field.Width, cfg.Field.Height, cfg.Field.Workers)
    if err != nil {
        // Invalid worker layout exits nonzero; no work is performed.
        zap.L().Error("invalid worker configuration", zap.Error(err))
        return 1
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    var ch producer.Channel
    if opts.OpenPort {
        mgr, err := openChannel(ctx, cfg)
        if err != nil {
            // Setup/connect failures degrade to standalone operation.
            zap.L().Warn("channel unavailable, running standalone", zap.Error(err))
        } else {
            ch = mgr
        }
    }

    p := producer.New(producer.Options{
        Group:           group,
        Channel:         ch,
        MinSendInterval: time.Duration(cfg.Channel.MinSendIntervalMS) * time.Millisecond,
        Duration:        time.Duration(cfg.Field.DurationS * float64(time.Second)),
        Log:             zap.L(),
    })
    _, runErr := p.Run(ctx)
    p.Shutdown()

    if runErr != nil {
        if errors.Is(runErr, producer.ErrAborted) {
            zap.L().Error("channel transport failed, aborting", zap.Error(runErr))
        } else {
            zap.L().Error("run failed", zap.Error(runErr))
        }
        return 1
    }
    return 0
}

// openChannel publishes a rendezvous endpoint and blocks until the view
// program connects or ctx is cancelled.
func openChannel(ctx context.Context, cfg *config.Config) (*channel.Manager, error) {
    tr, err := transports.New(cfg.Channel.Transport)
    if err != nil {
        return nil, err
    }
    mgr := channel.New(channel.Options{
        Transport:  tr,
        Broker:     rendezvous.NewFileBroker(cfg.Channel.RendezvousPath),
        ListenAddr: cfg.Channel.Listen,
        Width:      cfg.Field.Width,
        Height:     cfg.Field.Height,
        Log:        zap.L(),
    })
    if err := mgr.Publish(ctx); err != nil {
        return nil, err
    }
    return mgr, nil
}
