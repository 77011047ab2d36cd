package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eip-explainer/handler"
	"eip-explainer/internal/config"
	"eip-explainer/internal/integrations/eipsource"
	"eip-explainer/internal/integrations/openai"
	"eip-explainer/internal/integrations/paramstore"
	"eip-explainer/internal/metrics"
	"eip-explainer/internal/ogimage"
	"eip-explainer/internal/render"
	"eip-explainer/internal/repository"
	"eip-explainer/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

var (
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:           "eip-explainer",
		Short:         "Farcaster frame that explains Ethereum Improvement Proposals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			loaded, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			cfg = loaded
			slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel))
			return nil
		},
		// Without a subcommand the binary runs as a Lambda function.
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := buildHandler(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			lambda.Start(h.Handle)
			return nil
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the frame over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
)

func init() {
	config.Bind(viper.GetViper())

	serveCmd.Flags().Int("port", 3000, "port to listen on")
	if err := viper.BindPFlag(config.KeyPort, serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	if err := viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("eip-explainer failed", "err", err)
		os.Exit(1)
	}
}

// newLogger writes JSON records to w. Logs go to stderr so stdout stays free
// for command output.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildService wires the state machine to its upstreams.
func buildService(ctx context.Context, cfg config.Config) (*usecase.ExplainService, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	resolver, err := eipsource.New(
		eipsource.WithPrimaryURL(cfg.PrimaryURL),
		eipsource.WithFallbackURL(cfg.FallbackURL),
		eipsource.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create content resolver: %w", err)
	}

	opts := []openai.Option{
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithModel(cfg.OpenAIModel),
		openai.WithHTTPClient(httpClient),
	}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, openai.WithAPIKey(cfg.OpenAIAPIKey))
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		opts = append(opts, openai.WithParamStore(ssmClient, cfg.ParamPrefix))
	}
	openaiClient, err := openai.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}

	summarizer, err := usecase.NewSummarizer(openaiClient)
	if err != nil {
		return nil, fmt.Errorf("create summarizer: %w", err)
	}
	return usecase.NewExplainService(resolver, summarizer)
}

func buildHandler(ctx context.Context, cfg config.Config, collector *metrics.Collector) (*handler.Handler, error) {
	service, err := buildService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	frames, err := render.New(cfg.PublicHost)
	if err != nil {
		return nil, fmt.Errorf("create frame renderer: %w", err)
	}
	images, err := ogimage.New(cfg.ImageConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create image renderer: %w", err)
	}

	opts := []handler.Option{
		handler.WithMetrics(collector),
		handler.WithProbe(cfg.PublicHost, cfg.HasOpenAI()),
	}
	if cfg.AuditTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		audit, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.AuditTable)
		if err != nil {
			return nil, fmt.Errorf("create audit client: %w", err)
		}
		opts = append(opts, handler.WithAudit(audit))
	}

	h, err := handler.NewHandler(service, frames, images, opts...)
	if err != nil {
		return nil, fmt.Errorf("create handler: %w", err)
	}
	return h, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	h, err := buildHandler(ctx, cfg, metrics.New())
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	h.Register(e)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", handler.Addr(cfg.Port), "host", cfg.PublicHost)
		errCh <- e.Start(handler.Addr(cfg.Port))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
