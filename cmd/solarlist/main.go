// Package main is the solarlist CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/solarlist/solarlist/internal/catalog"
	"github.com/solarlist/solarlist/internal/cli"
	"github.com/solarlist/solarlist/internal/config"
	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/internal/render"
	"github.com/solarlist/solarlist/internal/server"
	"github.com/solarlist/solarlist/internal/storage"
	"github.com/solarlist/solarlist/internal/workflow"
	"github.com/solarlist/solarlist/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/solarlist/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "generate":
		runGenerate()
	case "history":
		runHistory()
	case "fetch":
		runFetch()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("solarlist version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (submissions, renders, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Controller, components.Storage, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	inputPath := fs.String("input", "", "submission file (YAML or JSON: client_name, technician_name, lines)")
	outPath := fs.String("out", "", "output PDF path (default: lista_<id>.pdf)")
	_ = fs.Parse(os.Args[2:])

	if *inputPath == "" {
		fmt.Println("Usage: solarlist generate --input <file> [--out <file>]")
		os.Exit(1)
	}
	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}
	var input models.SubmitInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse input: %v\n", err)
		os.Exit(1)
	}

	var rec *models.ListRecord
	var doc []byte
	var waLink string

	if *serverURL != "" {
		resp, err := submitViaHTTP(*serverURL, &input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generate failed: %v\n", err)
			os.Exit(1)
		}
		rec, doc, waLink = resp.Record, resp.Document, resp.WhatsAppLink
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		result, err := components.Controller.Submit(context.Background(), input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generate failed: %v\n", err)
			os.Exit(1)
		}
		rec, doc, waLink = result.Record, result.Document, result.WhatsAppLink
	}

	out := *outPath
	if out == "" {
		out = fmt.Sprintf("lista_%d.pdf", rec.ID)
	}
	if err := os.WriteFile(out, doc, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Record %d created (%d material lines)\n", rec.ID, len(rec.Materials))
	fmt.Printf("PDF written to %s\n", out)
	fmt.Printf("Share: %s\n", waLink)
}

type submitHTTPResponse struct {
	Record       *models.ListRecord `json:"record"`
	Document     []byte             `json:"document"`
	WhatsAppLink string             `json:"whatsapp_link"`
}

func submitViaHTTP(serverURL string, input *models.SubmitInput) (*submitHTTPResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/records", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out submitHTTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	client := fs.String("client", "", "filter by client name (substring, case-insensitive)")
	from := fs.String("from", "", "filter from date (YYYY-MM-DD)")
	to := fs.String("to", "", "filter to date (YYYY-MM-DD)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}

	var summaries []*models.RecordSummary
	if *serverURL != "" {
		q := url.Values{}
		if *client != "" {
			q.Set("client", *client)
		}
		if *from != "" {
			q.Set("from", *from)
		}
		if *to != "" {
			q.Set("to", *to)
		}
		endpoint := *serverURL + "/api/v1/records"
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}
		resp, err := http.Get(endpoint)
		if err != nil {
			fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Records []*models.RecordSummary `json:"records"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		summaries = out.Records
	} else {
		filter, err := historyFilter(*client, *from, *to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		components := mustInitDirect(*configPath)
		defer components.Close()
		summaries, err = components.Controller.History(context.Background(), filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cli.WriteHistory(os.Stdout, summaries, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func historyFilter(client, from, to string) (models.HistoryFilter, error) {
	var f models.HistoryFilter
	f.Client = client
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %s", from)
		}
		f.From = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %s", to)
		}
		f.To = t.Add(24*time.Hour - time.Second)
	}
	return f, nil
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outPath := fs.String("out", "", "output PDF path (default: lista_<id>.pdf)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: solarlist fetch [flags] <record-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	var doc []byte
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/records/" + id + "/document")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			fmt.Fprintf(os.Stderr, "Record %s not found\n", id)
			os.Exit(1)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		doc, err = io.ReadAll(resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		var recID int64
		if _, err := fmt.Sscanf(id, "%d", &recID); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid record id: %s\n", id)
			os.Exit(1)
		}
		components := mustInitDirect(*configPath)
		defer components.Close()
		_, d, err := components.Controller.Fetch(context.Background(), recID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
			os.Exit(1)
		}
		doc = d
	}

	out := *outPath
	if out == "" {
		out = fmt.Sprintf("lista_%s.pdf", id)
	}
	if err := os.WriteFile(out, doc, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PDF written to %s\n", out)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outPath := fs.String("out", "historico.xlsx", "output xlsx path")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/records/export")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("History exported to %s\n", *outPath)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Records        int64                  `json:"records"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		count, err := components.Storage.CountRecords(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Records: count,
			Config: map[string]interface{}{
				"database_path": cfg.Storage.DatabasePath,
				"documents_dir": cfg.Storage.DocumentsDir,
				"company_name":  cfg.Branding.CompanyName,
			},
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.DocumentsDir)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:           %d   # count of stored generation records\n", status.Records)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:  %d   # database + documents on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"company_name", "database_path", "documents_dir"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-18s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Catalog    *catalog.Catalog
	Renderer   *render.Renderer
	Controller *workflow.Controller
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	} else {
		cat = catalog.Default()
	}

	renderer := render.NewRenderer(cfg.Branding.CompanyName, cfg.Branding.LogoPath)
	controller := workflow.NewController(store, renderer, cat, cfg.Storage.DocumentsDir, logger)

	return &Components{
		Storage:    store,
		Catalog:    cat,
		Renderer:   renderer,
		Controller: controller,
	}, nil
}

// mustInitDirect loads config and initializes components for direct storage
// access, exiting on failure.
func mustInitDirect(configPath string) *Components {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components
}

func printUsage() {
	fmt.Println(`solarlist - Bill-of-materials generator for photovoltaic installations

Usage:
  solarlist server [flags]            Start the HTTP server
  solarlist generate [flags]          Generate a list from a submission file
  solarlist history [flags]           Show stored generation records
  solarlist fetch [flags] <id>        Download the PDF for a record
  solarlist export [flags]            Export the history to xlsx
  solarlist status [flags]            Show storage status
  solarlist version                   Show version
  solarlist help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/solarlist/config.yaml)
  --debug            Enable debug logging

Generate Flags:
  --input string     Submission file (YAML or JSON: client_name, technician_name, lines)
  --out string       Output PDF path (default: lista_<id>.pdf)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

History Flags:
  --client string    Filter by client name (substring, case-insensitive)
  --from string      Filter from date (YYYY-MM-DD)
  --to string        Filter to date (YYYY-MM-DD)
  --output string    Output format: text or json (default: text)
  --server string    Server URL. Use empty (--server "") for direct storage.

Examples:
  solarlist server
  solarlist generate --input lista.yaml
  solarlist history --client ana --output json
  solarlist fetch 12
  solarlist export --out historico.xlsx
  solarlist status`)
}
