package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	// Database drivers selectable via the connector configuration.
	// The odbc driver is registered in odbc_driver.go (needs cgo on unix).
	_ "github.com/SAP/go-hdb/driver"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: sap-mcp [flags] <config.yaml>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Examples:")
	fmt.Fprintln(os.Stderr, "  # Run with stdio (for local agent hosts)")
	fmt.Fprintln(os.Stderr, "  sap-mcp config.yaml")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  # Run with HTTP (for remote access)")
	fmt.Fprintln(os.Stderr, "  sap-mcp -transport http config.yaml")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  # Interactive configuration wizard")
	fmt.Fprintln(os.Stderr, "  sap-mcp -wizard config.yaml")
}

func main() {
	var (
		transport = flag.String("transport", "stdio", "transport mode: stdio or http")
		addr      = flag.String("addr", "", "listen address for the http transport (default \":<http_port>\" from config)")
		wizard    = flag.Bool("wizard", false, "run the interactive configuration wizard and exit")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	configPath := flag.Arg(0)

	if *wizard {
		if err := runWizard(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// .env may carry SAP_MCP_PASSWORD; absence is fine.
	_ = godotenv.Load()

	if err := run(configPath, *transport, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, transport, addr string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msg := "configuration errors:"
		for _, e := range errs {
			msg += "\n  - " + e
		}
		return fmt.Errorf("%s", msg)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	conn, err := NewConnector(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Gate server readiness on a working database connection.
	if !conn.TestConnection(ctx) {
		return fmt.Errorf("failed to connect to database.\nDetails: %s\n\nPlease check your configuration", conn.LastError())
	}
	logger.Info("database connection successful", "connector", cfg.Connector.Type)

	srv := NewServer(cfg, conn, logger)

	switch transport {
	case "stdio":
		return srv.ServeStdio(ctx)
	case "http":
		if addr == "" {
			addr = net.JoinHostPort("", strconv.Itoa(cfg.Server.HTTPPort))
		}
		return srv.ServeHTTP(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
	}
}

// newLogger builds the process logger. Stderr gets a tinted handler (stdout
// belongs to the stdio transport); when the config names a log file, logs go
// there instead as plain text.
func newLogger(logFile string) (*slog.Logger, func(), error) {
	if logFile == "" {
		h := tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo})
		return slog.New(h), func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), func() { f.Close() }, nil
}
