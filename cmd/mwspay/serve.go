package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/thomasdesr/mwspay/internal/config"
	"github.com/thomasdesr/mwspay/internal/dedupe"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/metrics"
	"github.com/thomasdesr/mwspay/ipn"
	"github.com/thomasdesr/mwspay/ipnhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive IPNs over HTTP",
		Long: `Serve POST /ipn, authenticating each notification and logging the ones
that pass. Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			engine, err := a.newEngine()
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Bind,
				Handler:           engine,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("serving notifications", zap.String("bind", srv.Addr), zap.Int("topics", len(a.cfg.Server.Topics)))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	flags := cmd.Flags()
	flags.String("bind", ":8080", "address to listen on")
	flags.StringSlice("topics", nil, "allowed SNS topic ARNs")
	flags.String("redis-addr", "", "redis used to drop duplicate notifications")
	for key, flag := range map[string]string{
		config.KeyBind:      "bind",
		config.KeyTopics:    "topics",
		config.KeyRedisAddr: "redis-addr",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	return cmd
}

func (a *app) newEngine() (*gin.Engine, error) {
	v, err := a.newNotificationVerifier()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewService(reg)

	opts := []ipnhttp.Option{
		ipnhttp.WithLogger(a.logger),
		ipnhttp.WithRecorder(m),
	}

	if a.cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB})
		opts = append(opts, ipnhttp.WithDeduper(dedupe.NewRedis(client, a.cfg.Redis.DedupeTTL)))
	}

	srv := ipnhttp.New(v, a.logNotification, opts...)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	srv.Register(engine)

	return engine, nil
}

func (a *app) logNotification(_ context.Context, n *ipn.VerifiedNotification) error {
	inner, err := n.Inner()
	if err != nil {
		return errorutil.Wrap(err, "decoding notification")
	}

	a.logger.Info("notification",
		zap.String("message_id", n.MessageID),
		zap.String("type", inner.NotificationType),
		zap.String("seller_id", inner.SellerID),
		zap.String("environment", inner.ReleaseEnvironment),
	)
	return nil
}
