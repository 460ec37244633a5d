package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	logger "github.com/Easy-Infra-Ltd/easy-logger"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/Easy-Infra-Ltd/phish-preview/src/gateway"
	"github.com/Easy-Infra-Ltd/phish-preview/src/report"
	"github.com/Easy-Infra-Ltd/phish-preview/src/transport"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine outside development

	log := logger.CreateLoggerFromEnv(nil, "blue").With("process", "phishpreview")

	if len(os.Args) > 1 && os.Args[1] == "render" {
		if err := runRender(os.Args[2:], os.Stdin, os.Stdout, log); err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfgPath := "config.json"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	gw := gateway.New(cfg, log)
	if err := gw.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

// runRender renders one email from stdin or an .eml file and prints the
// fragment, or a summary with -summary.
func runRender(args []string, stdin io.Reader, stdout *os.File, log *slog.Logger) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file (JSON or YAML); built-in rules when empty")
	emlPath := fs.String("eml", "", "read a raw RFC 5322 message instead of plaintext from stdin")
	trusted := fs.String("trusted", "", "trusted-domain file overriding the configured one")
	summary := fs.Bool("summary", false, "print a human-readable summary instead of the HTML fragment")
	noColor := fs.Bool("no-color", false, "disable coloured summary output")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	cfg.Preview = config.Merge(&cfg.Preview, &config.PreviewConfig{TrustedDomainsFile: *trusted})

	var req gateway.PreviewRequest
	if *emlPath != "" {
		data, err := os.ReadFile(*emlPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", *emlPath, err)
		}
		req.EML = string(data)
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		req.Text = string(data)
	}

	ctx := context.Background()
	sm := transport.NewScorerManager(ctx, cfg.Scorers, log, nil)
	defer sm.Close()

	svc := gateway.NewService(gateway.BuildRenderer(cfg.Preview, log), gateway.NewScorer(sm, log), log)
	resp, err := svc.Preview(ctx, req)
	if err != nil {
		return err
	}

	if !*summary {
		_, err := fmt.Fprintln(stdout, resp.Fragment)
		return err
	}

	useColor := !*noColor && term.IsTerminal(int(stdout.Fd()))
	return report.NewWriter(useColor).Write(stdout, report.Summary{
		Analysis: resp.Analysis,
		Subject:  resp.Subject,
		From:     resp.From,
		Score:    resp.Score,

		SenderDomain:     resp.SenderDomain,
		SenderMismatches: resp.SenderMismatches,
	})
}
