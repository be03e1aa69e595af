package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/valyu-mcp/client"
	"github.com/lexandro/valyu-mcp/config"
	"github.com/lexandro/valyu-mcp/logging"
	"github.com/lexandro/valyu-mcp/register"
	"github.com/lexandro/valyu-mcp/server"
	"github.com/lexandro/valyu-mcp/tools"
)

var version = "0.1.0"

// loggedError wraps a failure that was already written to the operator log.
type loggedError struct{ err error }

func (e loggedError) Error() string { return e.err.Error() }
func (e loggedError) Unwrap() error { return e.err }

type serveFlags struct {
	envFile         string
	baseURL         string
	timeout         time.Duration
	maxResponseSize int64
	proxy           string
	insecure        bool
	httpAddr        string
	logFile         string
	logLevel        string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags serveFlags

	root := &cobra.Command{
		Use:   "valyu-mcp",
		Short: "MCP server exposing Valyu context retrieval as a tool",
		Long: `valyu-mcp serves the valyu_context tool to MCP hosts over stdio.

The Valyu API key is read from VALYU_API_KEY (a .env file in the working
directory is loaded first when present).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	root.Flags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "Env file to load before reading VALYU_API_KEY")
	root.Flags().StringVar(&flags.baseURL, "base-url", "", "Valyu API base URL (default $"+config.BaseURLEnv+" or "+client.DefaultBaseURL+")")
	root.Flags().DurationVar(&flags.timeout, "timeout", client.DefaultTimeout, "Timeout for each Valyu request")
	root.Flags().Int64Var(&flags.maxResponseSize, "max-response-size", client.DefaultMaxResponseSize, "Maximum Valyu response body size in bytes")
	root.Flags().StringVar(&flags.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	root.Flags().BoolVar(&flags.insecure, "insecure", false, "Skip TLS certificate verification")
	root.Flags().StringVar(&flags.httpAddr, "http", "", "Serve streamable HTTP on this address instead of stdio (e.g. :8080)")
	root.Flags().StringVar(&flags.logFile, "log-file", "", "Log file path (stderr if empty)")
	root.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug/info/warn/error)")

	root.AddCommand(register.NewCommand(register.ServerInfo{
		Name:   serverName(),
		EnvVar: []string{config.APIKeyEnv},
	}))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", server.Name, version)
		},
	})

	return root
}

func serverName() string {
	if name := register.DeriveServerName(os.Args[0]); name != "" && name != "." {
		return name
	}
	return "valyu"
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	logger, closeLog, err := logging.New(logging.Options{Level: flags.logLevel, File: flags.logFile})
	if err != nil {
		return err
	}
	defer closeLog()

	fail := func(msg string, err error) error {
		logger.Error(msg, "error", err)
		return loggedError{err: err}
	}

	if err := config.LoadEnvFile(flags.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return fail("loading env file", err)
	}

	cfg, err := config.Load(config.Options{
		BaseURL:         flags.baseURL,
		Timeout:         flags.timeout,
		MaxResponseSize: flags.maxResponseSize,
		ProxyURL:        flags.proxy,
		InsecureTLS:     flags.insecure,
		Version:         version,
	}, os.LookupEnv)
	if err != nil {
		return fail("invalid configuration", err)
	}

	valyu := client.NewClient(cfg)
	mcpServer := server.New(version)
	if err := tools.Register(mcpServer, valyu, logger); err != nil {
		return fail("registering tools", err)
	}
	logger.Info("server initialized with Valyu API key", "base_url", valyu.BaseURL(), "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, mcpServer, flags.httpAddr, logger); err != nil {
		return fail("fatal error running MCP server", err)
	}
	return nil
}

func serve(ctx context.Context, mcpServer *mcp.Server, httpAddr string, logger *slog.Logger) error {
	if httpAddr != "" {
		logger.Info("serving streamable HTTP", "addr", httpAddr)
		return server.RunHTTP(ctx, mcpServer, httpAddr)
	}
	logger.Info("serving stdio")
	return server.Run(ctx, mcpServer)
}
