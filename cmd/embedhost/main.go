package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	mmateembed "github.com/glimte/mmate-embed"
	"github.com/glimte/mmate-embed/auth"
	"github.com/glimte/mmate-embed/contracts"
	"github.com/glimte/mmate-embed/embed"
	"github.com/glimte/mmate-embed/messaging"
	"github.com/glimte/mmate-embed/transports/rabbitmq"
	"github.com/glimte/mmate-embed/transports/stream"
	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

type hostFlags struct {
	embedType string
	props     []string
	token     string
	tokenFile string
	redis     bool
	verbose   bool
}

func main() {
	var flags hostFlags

	rootCmd := &cobra.Command{
		Use:   "embedhost",
		Short: "Host an embedded content session from the command line",
		Long: `embedhost plays the host side of the embedding protocol. It mounts one
embedding, answers token requests and prints every event the content emits.
Connection settings come from THOUGHTSPOT_* and EMBED_* environment variables.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.embedType, "type", "t", mmateembed.EmbedTypeLiveboard, "Content type to embed")
	rootCmd.PersistentFlags().StringArrayVarP(&flags.props, "prop", "p", nil, "View property as key=value; JSON values are decoded")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "Static auth token")
	rootCmd.PersistentFlags().StringVar(&flags.tokenFile, "token-file", "", "Read the auth token from a file and reload it on change")
	rootCmd.PersistentFlags().BoolVar(&flags.redis, "redis", false, "Read the auth token from Redis (EMBED_REDIS_*)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	stdioCmd := &cobra.Command{
		Use:   "stdio",
		Short: "Exchange newline-delimited JSON messages over stdin and stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)
			transport := stream.NewTransport(cmd.OutOrStdout(), stream.WithLogger(logger))
			defer transport.Close()

			controller, cleanup, err := mount(ctx, flags, transport, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return stream.Serve(ctx, cmd.InOrStdin(), controller)
		},
	}

	amqpCmd := &cobra.Command{
		Use:   "amqp",
		Short: "Exchange messages through RabbitMQ (EMBED_AMQP_*)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := newLogger(cmd.ErrOrStderr(), flags.verbose)
			cfg, err := rabbitmq.ConfigFromEnv()
			if err != nil {
				return err
			}
			transport, err := rabbitmq.Dial(ctx, cfg, rabbitmq.WithLogger(logger))
			if err != nil {
				return err
			}
			defer transport.Close()

			controller, cleanup, err := mount(ctx, flags, transport, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			err = transport.Serve(ctx, controller)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List the event properties and host events",
		Run: func(cmd *cobra.Command, args []string) {
			printEvents(cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(stdioCmd, amqpCmd, eventsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// mount builds the client and a mounted controller that logs every embed event
func mount(ctx context.Context, flags hostFlags, transport messaging.Transport, logger *slog.Logger) (*embed.Controller, func(), error) {
	credentials, closeCredentials, err := credentialSource(ctx, flags, logger)
	if err != nil {
		return nil, nil, err
	}

	client, err := mmateembed.NewClientFromEnv(credentials, mmateembed.WithLogger(logger))
	if err != nil {
		closeCredentials()
		return nil, nil, err
	}

	props, err := parseProps(flags.props)
	if err != nil {
		closeCredentials()
		return nil, nil, err
	}
	for name := range contracts.EventProps {
		prop := name
		props[prop] = func(payload json.RawMessage) {
			logger.Info("embed event", "prop", prop, "payload", string(payload))
		}
	}

	controller, err := client.Embed(ctx, flags.embedType, transport, props)
	if err != nil {
		closeCredentials()
		return nil, nil, err
	}

	cleanup := func() {
		controller.Unmount()
		closeCredentials()
	}
	return controller, cleanup, nil
}

func credentialSource(ctx context.Context, flags hostFlags, logger *slog.Logger) (auth.CredentialSource, func(), error) {
	noop := func() {}

	switch {
	case flags.tokenFile != "":
		src, err := auth.NewFileSource(flags.tokenFile, auth.WithFileLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case flags.redis:
		src, err := auth.DialRedisSourceFromEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case flags.token != "":
		return auth.StaticToken(flags.token), noop, nil
	default:
		return nil, noop, nil
	}
}

func parseProps(raw []string) (embed.Props, error) {
	props := embed.Props{}
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --prop %q, want key=value", kv)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			props[key] = decoded
		} else {
			props[key] = value
		}
	}
	return props, nil
}

func printEvents(w io.Writer) {
	names := make([]string, 0, len(contracts.EventProps))
	for name := range contracts.EventProps {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Event properties:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-22s %s\n", name, contracts.EventProps[name])
	}

	fmt.Fprintln(w, "\nHost events:")
	for _, e := range contracts.HostEvents() {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
