package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepgram/oppositegpt/internal/chat"
	"github.com/deepgram/oppositegpt/internal/config"
	"github.com/deepgram/oppositegpt/internal/connections"
	"github.com/deepgram/oppositegpt/internal/logger"
	"github.com/deepgram/oppositegpt/internal/services/session"
	"github.com/deepgram/oppositegpt/internal/transport"
	"github.com/deepgram/oppositegpt/internal/ui"
)

type options struct {
	transport string
	apiURL    string
	wsURL     string
	model     string
	logLevel  string
	logFile   string
	timeout   time.Duration
	markdown  bool

	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	runChat := func(cmd *cobra.Command, args []string) error {
		return opts.runChat(cmd.Context())
	}

	rootCmd := &cobra.Command{
		Use:   "oppositegpt",
		Short: "Chat with the OppositeGPT inversion backend",
		Long: `OppositeGPT flips every thought you feed it.

Without a subcommand an interactive chat session starts in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configureLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.closeLog()
		},
		RunE: runChat,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.transport, "transport", string(config.GetTransportMode()), "Transport to the backend: request or stream")
	flags.StringVar(&opts.apiURL, "api-url", config.GetAPIURL(), "Base URL of the request transport")
	flags.StringVar(&opts.wsURL, "ws-url", config.GetWSURL(), "Endpoint of the streaming transport")
	flags.StringVar(&opts.model, "model", config.GetModel(), "Model label sent with streamed turns")
	flags.StringVar(&opts.logLevel, "log-level", config.GetEnvOrDefault("LOG_LEVEL", "INFO"), "Log level: DEBUG, INFO, WARN or ERROR")
	flags.StringVar(&opts.logFile, "log-file", "", "Append logs to this file")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
	rootCmd.Flags().BoolVar(&opts.markdown, "markdown", true, "Render replies as Markdown")
	chatCmd.Flags().BoolVar(&opts.markdown, "markdown", true, "Render replies as Markdown")

	askCmd := &cobra.Command{
		Use:   "ask <text...>",
		Short: "Send one thought and print the flipped reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runAsk(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
	askCmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Give up on the reply after this long")

	rootCmd.AddCommand(chatCmd, askCmd)
	return rootCmd
}

func (o *options) configureLogging() error {
	logger.SetLevel(o.logLevel)
	if o.logFile == "" {
		return nil
	}
	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(f)
	o.logCloser = f
	return nil
}

func (o *options) closeLog() {
	if o.logCloser == nil {
		return
	}
	logger.SetOutput(os.Stderr)
	o.logCloser.Close()
	o.logCloser = nil
}

func (o *options) newController() (*chat.Controller, error) {
	sess := session.NewService()
	t, err := o.buildTransport(sess)
	if err != nil {
		return nil, err
	}
	return chat.NewController(t, chat.WithSessionID(sess.ID())), nil
}

func (o *options) buildTransport(sess *session.Service) (transport.Transport, error) {
	mode, err := config.ParseTransportMode(o.transport)
	if err != nil {
		return nil, err
	}

	logger.Info(logger.APP, "Using %s transport for session %s", mode, sess.ID())
	switch mode {
	case config.TransportStream:
		return transport.NewStreamTransport(transport.StreamConfig{
			URL:       o.wsURL,
			SessionID: sess.ID(),
			Model:     o.model,
			Auth:      sess,
			Timeouts:  connections.DefaultTimeouts,
		}), nil
	default:
		return transport.NewRequestTransport(transport.RequestConfig{
			BaseURL: strings.TrimRight(o.apiURL, "/"),
			Auth:    sess,
		}), nil
	}
}

func (o *options) runChat(ctx context.Context) error {
	if o.logFile == "" {
		logger.SetOutput(io.Discard)
		defer logger.SetOutput(os.Stderr)
	}

	controller, err := o.newController()
	if err != nil {
		return err
	}
	return ui.Run(ctx, controller, ui.WithMarkdown(o.markdown))
}

func (o *options) runAsk(ctx context.Context, out io.Writer, text string) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	controller, err := o.newController()
	if err != nil {
		return err
	}
	defer controller.Close()

	if err := controller.Start(ctx); err != nil {
		return err
	}

	reply, err := controller.Ask(ctx, text)
	if reply.Content != "" {
		fmt.Fprintln(out, reply.Content)
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return nil
}
