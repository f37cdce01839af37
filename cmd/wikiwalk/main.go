// Command wikiwalk resolves a BDRC work ID to its Wikidata entity, prints
// the normalized metadata, and walks the edition / derivative-work graph
// into JSON, DOT and HTML artifacts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"wikiutils/pkg/cache"
	"wikiutils/pkg/config"
	"wikiutils/pkg/db"
	"wikiutils/pkg/logging"
	"wikiutils/pkg/render"
	"wikiutils/pkg/request"
	"wikiutils/pkg/tracker"
	"wikiutils/pkg/version"
	"wikiutils/pkg/wikidata"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/wikiutils.yaml", "Path to config file")
	walkLimit  = flag.Int("limit", -1, "Max entities to expand (-1: use config value, 0: unlimited)")
	noWalk     = flag.Bool("no-walk", false, "Only print metadata, skip the relationship walk")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <work-id-or-qid>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), *configPath, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, input string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Credentials and IDs may come from a local .env instead of the config
	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("wikiwalk started", "version", version.Version, "input", input)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.PruneCache(appCfg.DB.CacheTTL.Std()); err != nil {
		slog.Warn("Cache pruning failed", "error", err)
	}

	tr := tracker.New()
	reqClient := request.New(&appCfg.Request, cache.NewSQLiteCache(dbConn), tr)
	reqClient.SetLogger(logging.RequestLogger)
	wdClient := wikidata.NewClient(reqClient, &appCfg.Wikidata, slog.With("component", "wikidata"))

	// BDRC IDs like P1215 are indistinguishable from Wikidata property IDs by
	// shape, so only a leading Q marks the input as an entity ID. Anything
	// else goes through the work-ID resolver exactly once.
	var entity *wikidata.Entity
	if strings.HasPrefix(input, "Q") && wikidata.IsQID(input) {
		entity, err = wdClient.EntityMetadata(ctx, input)
	} else {
		entity, err = wdClient.GetEntityMetadata(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch metadata for %q: %w", input, err)
	}
	qid := entity.QID
	if qid != input {
		slog.Info("Resolved work ID", "work_id", input, "qid", qid)
	}
	if err := printJSON(entity); err != nil {
		return err
	}

	outDir := appCfg.Output.Dir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := render.WriteJSON(filepath.Join(outDir, qid+"_metadata.json"), entity); err != nil {
		return err
	}

	if *noWalk {
		return nil
	}

	walker := wikidata.NewWalker(wdClient, slog.With("component", "walker"))
	if len(appCfg.Wikidata.WalkProperties) > 0 {
		walker.SetProperties(appCfg.Wikidata.WalkProperties)
	}
	walker.Limit = appCfg.Wikidata.WalkLimit
	if *walkLimit >= 0 {
		walker.Limit = *walkLimit
	}

	edges := walker.Walk(ctx, qid)
	slog.Info("Walk complete", "root", qid, "edges", len(edges))

	labels := collectLabels(ctx, wdClient, appCfg.Wikidata.Language, qid, edges)

	if err := render.WriteJSON(filepath.Join(outDir, qid+"_edges.json"), edges); err != nil {
		return err
	}
	if err := render.WriteDOT(filepath.Join(outDir, qid+"_graph.dot"), edges, labels); err != nil {
		return err
	}
	title := fmt.Sprintf("%s relationships", qid)
	if err := render.WriteHTML(filepath.Join(outDir, qid+"_graph.html"), title, edges, labels); err != nil {
		return err
	}

	for provider, stats := range tr.Snapshot() {
		slog.Info("Provider stats", "provider", provider,
			"api_success", stats.APISuccess, "api_failures", stats.APIFailures,
			"cache_hits", stats.CacheHits, "cache_misses", stats.CacheMisses)
	}

	fmt.Printf("Wrote %d edges to %s\n", len(edges), outDir)
	return nil
}

// collectLabels resolves a display label for every node in the edge list.
// The walk already fetched these entities, so this hits the cache.
func collectLabels(ctx context.Context, c *wikidata.Client, language, root string, edges []wikidata.Edge) map[string]string {
	qids := map[string]bool{root: true}
	for _, e := range edges {
		qids[e.From] = true
		qids[e.To] = true
	}

	labels := make(map[string]string, len(qids))
	for qid := range qids {
		raw, err := c.FetchEntity(ctx, qid)
		if err != nil {
			continue
		}
		entity := wikidata.Normalize(qid, raw)
		if label := entity.Labels[language]; label != "" {
			labels[qid] = label
		}
	}
	return labels
}

func printJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}
