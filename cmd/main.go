package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cold-message/handler"
	"cold-message/internal/catalog"
	"cold-message/internal/domain"
	"cold-message/internal/integrations/gemini"
	"cold-message/internal/integrations/openai"
	"cold-message/internal/integrations/paramstore"
	"cold-message/internal/metrics"
	"cold-message/internal/model"
	"cold-message/internal/usecase"
)

const metricsNamespace = "coldmsg"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Getenv).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
	stdout     io.Writer
	getenv     func(string) string
}

func newRootCmd(stdout io.Writer, getenv func(string) string) *cobra.Command {
	opts := &rootOptions{stdout: stdout, getenv: getenv, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:          "coldmsg",
		Short:        "Generate personalized networking messages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file (default $COLDMSG_CONFIG)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGenerateCmd(opts), newPromptCmd(opts), newFieldsCmd(opts))
	return root
}

type formFlags struct {
	form handler.Form
}

func (f *formFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.form.Name, "name", "", "your name")
	fl.StringVar(&f.form.Field, "field", "", "professional field, see the fields command")
	fl.StringSliceVar(&f.form.Skills, "skills", nil, "exactly 3 skills from the field's vocabulary, comma separated")
	fl.StringVar(&f.form.CompanyName, "company", "", "company you are reaching out to")
	fl.StringVar(&f.form.JobDescription, "job", "", "job description or opportunity")
	fl.StringVar(&f.form.MessageType, "type", string(handler.DefaultMessageType), "message type: linkedin, email, networking or collaboration")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("skills")
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		form         formFlags
		count        int
		fallbackOnly bool
		copyOut      bool
		asJSON       bool
		metricsFile  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a networking message",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, opts.getenv)
			if err != nil {
				return err
			}
			if metricsFile != "" {
				cfg.MetricsFile = metricsFile
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			prom := metrics.NewProm(metricsNamespace)
			svc, err := buildService(cmd.Context(), cfg, opts.logger, prom)
			if err != nil {
				return err
			}
			if fallbackOnly {
				svc.UseFallback()
			}
			h, err := handler.NewHandler(svc, catalog.Default())
			if err != nil {
				return err
			}

			var last handler.Response
			for i := 0; i < count; i++ {
				resp, err := h.Handle(cmd.Context(), form.form)
				if err != nil {
					return err
				}
				opts.logger.Debug("message generated",
					zap.String("request_id", resp.RequestID),
					zap.String("source", resp.Source),
				)
				if err := writeResponse(opts.stdout, resp, asJSON, i > 0); err != nil {
					return err
				}
				last = resp
			}

			if copyOut {
				if err := clipboard.WriteAll(last.Message); err != nil {
					opts.logger.Warn("failed to copy message to clipboard", zap.Error(err))
				}
			}
			if cfg.MetricsFile != "" {
				if err := prom.WriteTextfile(cfg.MetricsFile); err != nil {
					opts.logger.Warn("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
				}
			}
			return nil
		},
	}
	form.register(cmd)
	cmd.Flags().IntVar(&count, "count", 1, "number of messages to generate in this session")
	cmd.Flags().BoolVar(&fallbackOnly, "fallback", false, "skip the model and use templates only")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "copy the last message to the clipboard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print responses as JSON lines")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	return cmd
}

func writeResponse(w io.Writer, resp handler.Response, asJSON, separate bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(resp)
	}
	if separate {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, resp.Message)
	return err
}

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var form formFlags
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the model prompt for a request without generating",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := catalog.Default()
			h, err := handler.NewHandler(noGenerator{}, c)
			if err != nil {
				return err
			}
			req, err := h.Request(form.form)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(opts.stdout, usecase.BuildPrompt(c, req))
			return err
		},
	}
	form.register(cmd)
	return cmd
}

func newFieldsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List professional fields and their skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range catalog.Default().Fields() {
				if _, err := fmt.Fprintf(opts.stdout, "%s: %s\n", f.Name, strings.Join(f.Skills, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// buildService wires the configured model runtime into a MessageService.
func buildService(ctx context.Context, cfg Config, logger *zap.Logger, rec usecase.Recorder) (*usecase.MessageService, error) {
	svcOpts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithRecorder(rec),
		usecase.WithGenerationOptions(cfg.generationOptions()),
	}

	loader, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		t, err := cfg.timeouts()
		if err != nil {
			return nil, err
		}
		gw, err := model.NewGateway(loader,
			model.WithTimeout(t.invoke),
			model.WithLoadTimeout(t.load),
			model.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, usecase.WithGateway(gw))
	}
	return usecase.NewMessageService(catalog.Default(), svcOpts...)
}

// newLoader returns the loader for the configured backend, or nil for "none".
func newLoader(ctx context.Context, cfg Config) (model.Loader, error) {
	var params paramstore.Getter
	if cfg.APIKey == "" && cfg.ParamPrefix != "" && cfg.Backend != backendNone {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create SSM client: %w", err)
		}
		params = ssmClient
	}

	switch cfg.Backend {
	case backendOpenAI:
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if params != nil {
			opts = append(opts, openai.WithParamStore(params, cfg.ParamPrefix))
		}
		return openai.NewClient(cfg.Model, opts...)
	case backendGemini:
		opts := []gemini.Option{gemini.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		if params != nil {
			opts = append(opts, gemini.WithParamStore(params, cfg.ParamPrefix))
		}
		return gemini.NewLoader(cfg.Model, opts...)
	default:
		return nil, nil
	}
}

// noGenerator backs handlers that only validate forms.
type noGenerator struct{}

func (noGenerator) Generate(context.Context, domain.MessageRequest) (usecase.GenerateOutput, error) {
	return usecase.GenerateOutput{}, fmt.Errorf("generation is not available")
}
