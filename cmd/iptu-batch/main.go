package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/imobflow/iptu-batch/internal/batch"
	"github.com/imobflow/iptu-batch/internal/invoice"
	"github.com/imobflow/iptu-batch/internal/superlogica"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local .env is optional; flags and IPTU_* env vars win
	_ = godotenv.Load()

	fs := ff.NewFlagSet("iptu-batch")
	var (
		inbox       = fs.StringLong("inbox", "", "Directory scanned for IPTU invoice PDFs")
		okDir       = fs.StringLong("ok-dir", "", "Archive directory for successfully processed PDFs")
		errorDir    = fs.StringLong("error-dir", "", "Archive directory for failed PDFs")
		dbPath      = fs.StringLong("db", "iptu-batch.db", "Audit database file path")
		baseURL     = fs.StringLong("base-url", "", "Superlogica read API base URL")
		detailURL   = fs.StringLong("detail-url", "", "Expense detail endpoint URL")
		updateURL   = fs.StringLong("update-url", "", "Update-expense mutation endpoint URL")
		launchURL   = fs.StringLong("launch-url", "", "Launch-expense mutation endpoint URL")
		appToken    = fs.StringLong("app-token", "", "Superlogica app token")
		accessToken = fs.StringLong("access-token", "", "Superlogica access token")
		extractor   = fs.StringLong("extractor", "layout", "Extractor type: 'layout', 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("IPTU"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	required := map[string]string{
		"inbox":        *inbox,
		"ok-dir":       *okDir,
		"error-dir":    *errorDir,
		"base-url":     *baseURL,
		"detail-url":   *detailURL,
		"update-url":   *updateURL,
		"launch-url":   *launchURL,
		"app-token":    *appToken,
		"access-token": *accessToken,
	}
	for name, value := range required {
		if value == "" {
			slog.Error("Missing required setting", "flag", name)
			os.Exit(1)
		}
	}

	slog.Info("Initializing audit store...")
	store, err := batch.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize audit store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize extractor based on type
	var ext invoice.Extractor
	switch *extractor {
	case "layout":
		ext = invoice.NewLayout()
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		ext, err = invoice.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		ext, err = invoice.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractor, "valid", "layout, gemini or ollama")
		os.Exit(1)
	}
	defer ext.Close()

	client := superlogica.NewClient(superlogica.Config{
		BaseURL:     *baseURL,
		DetailURL:   *detailURL,
		UpdateURL:   *updateURL,
		LaunchURL:   *launchURL,
		AppToken:    *appToken,
		AccessToken: *accessToken,
	})

	runner := batch.NewRunner(client, ext, store, batch.Paths{
		Inbox: *inbox,
		OK:    *okDir,
		Error: *errorDir,
	})

	if err := runner.Run(context.Background()); err != nil {
		slog.Error("Batch run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Batch run finished")
}
