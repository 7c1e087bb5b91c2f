// Package main provides the plexusgraph CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/plexusgraph/pkg/adapter"
	"github.com/orneryd/plexusgraph/pkg/config"
	"github.com/orneryd/plexusgraph/pkg/decay"
	"github.com/orneryd/plexusgraph/pkg/declarative"
	"github.com/orneryd/plexusgraph/pkg/embed"
	"github.com/orneryd/plexusgraph/pkg/engine"
	"github.com/orneryd/plexusgraph/pkg/enrichment"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuslog"
	"github.com/orneryd/plexusgraph/pkg/storage"
	"github.com/orneryd/plexusgraph/pkg/vectorstore"
)

var logger = plexuslog.New("cli")

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plexusd",
		Short: "plexusgraph - multi-dimensional knowledge graph engine",
		Long: `plexusgraph ingests heterogeneous content (documents, code,
fragments, provenance, agent outputs) through adapters into a per-context,
multi-dimensional property graph with weighted, reinforcement-tracked
edges, built-in enrichments, and background decay.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("plexusd v%s (%s)\n", version, commit)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background decay scheduler over persisted contexts",
		Long:  "Open the configured graph store, load every persisted context into the engine, and run decay until interrupted.",
		RunE:  runServe,
	}
	rootCmd.AddCommand(serveCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest [context-id] [input-kind] [json-file]",
		Short: "Ingest one JSON payload into a context through a registered adapter",
		Args:  cobra.ExactArgs(3),
		RunE:  runIngest,
	}
	ingestCmd.Flags().String("specs-dir", "", "directory of declarative adapter specs to load before ingesting")
	rootCmd.AddCommand(ingestCmd)

	loadSpecsCmd := &cobra.Command{
		Use:   "load-specs [dir]",
		Short: "Validate every declarative adapter spec in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadSpecs,
	}
	rootCmd.AddCommand(loadSpecsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runServe opens the configured store, rehydrates every persisted context,
// and drives decay on an interval until SIGINT/SIGTERM. It does not stand
// up a network listener — the core is a library (§1's explicit non-goal
// of bolt/HTTP surfaces), so "serve" means running the one long-lived
// background process the engine actually needs.
func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger.Printf("starting plexusd v%s, config: %s", version, cfg)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.New(store)
	loaded, err := eng.LoadAll()
	if err != nil {
		return fmt.Errorf("loading contexts: %w", err)
	}
	logger.Printf("loaded %d contexts from %s", loaded, cfg.Storage.DataDir)

	registry := newContextRegistry()
	if ids, err := store.ListContexts(); err == nil {
		registry.seed(ids)
	}

	if cfg.Engine.DecayEnabled {
		decayCfg := decay.DefaultConfig()
		decayCfg.Interval = cfg.Engine.DecayInterval
		decayCfg.ArchiveThreshold = float32(cfg.Engine.ArchiveThreshold)
		mgr := decay.New(eng, decayCfg)
		mgr.Start(registry.list)
		defer mgr.Stop()
		logger.Printf("decay scheduler running every %s", cfg.Engine.DecayInterval)
	} else {
		logger.Printf("decay scheduler disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Printf("shutting down")
	return nil
}

// runIngest builds a throwaway engine and ingest pipeline, optionally
// loads declarative specs from --specs-dir, ensures the target context
// exists, and ingests a single JSON payload read from a file (or stdin
// via "-").
func runIngest(cmd *cobra.Command, args []string) error {
	contextID, inputKind, jsonPath := args[0], args[1], args[2]
	specsDir, _ := cmd.Flags().GetString("specs-dir")

	cfg := config.LoadFromEnv()
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.New(store)
	if _, err := eng.LoadAll(); err != nil {
		return fmt.Errorf("loading contexts: %w", err)
	}

	pipeline := adapter.NewIngestPipeline(eng)
	if specsDir != "" {
		n := pipeline.RegisterSpecsFromDir(specsDir, declarative.LoadSpecFile)
		logger.Printf("registered %d declarative adapters from %s", n, specsDir)
	}

	pipeline.RegisterEnrichments(builtinEnrichments(cfg)...)
	if cfg.Engine.MaxEnrichmentRounds > 0 {
		pipeline.EnrichmentRegistry().WithMaxRounds(cfg.Engine.MaxEnrichmentRounds)
	}

	if _, ok := eng.GetContext(graph.ContextID(contextID)); !ok {
		if err := eng.UpsertContext(graph.NewContext(contextID)); err != nil {
			return fmt.Errorf("creating context %s: %w", contextID, err)
		}
		logger.Printf("created context %s", contextID)
	}

	raw, err := readPayload(jsonPath)
	if err != nil {
		return err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing %s as JSON: %w", jsonPath, err)
	}

	outbound, adapterErr := pipeline.Ingest(contextID, inputKind, data)
	if adapterErr != nil {
		return fmt.Errorf("ingest: %s: %s", adapterErr.Kind, adapterErr.Message)
	}

	logger.Printf("ingest produced %d outbound events", len(outbound))
	for _, event := range outbound {
		encoded, _ := json.Marshal(event.Payload)
		fmt.Printf("%s: %s\n", event.Kind, encoded)
	}

	if err := eng.PersistContext(graph.ContextID(contextID)); err != nil {
		return fmt.Errorf("persisting context %s: %w", contextID, err)
	}
	return nil
}

// runLoadSpecs is a dry run over RegisterSpecsFromDir: it reports how
// many specs parsed successfully without ingesting anything, useful for
// validating a directory of adapter specs in CI before deploying them.
func runLoadSpecs(cmd *cobra.Command, args []string) error {
	dir := args[0]
	eng := engine.New(storage.NewMemoryEngine())
	pipeline := adapter.NewIngestPipeline(eng)

	n := pipeline.RegisterSpecsFromDir(dir, declarative.LoadSpecFile)
	kinds := pipeline.RegisteredInputKinds()

	fmt.Printf("loaded %d/%s valid adapter specs\n", n, dir)
	for _, kind := range kinds {
		fmt.Printf("  input_kind: %s\n", kind)
	}
	if n == 0 {
		return fmt.Errorf("no valid specs found in %s", dir)
	}
	return nil
}

// openStore opens the configured GraphStore: badger in-memory when
// PLEXUS_STORAGE_IN_MEMORY is set, otherwise badger on disk at DataDir.
// Returns a close func that is always safe to defer.
func openStore(cfg *config.Config) (storage.GraphStore, func(), error) {
	if cfg.Storage.InMemory {
		eng, err := storage.OpenBadgerInMemory()
		if err != nil {
			return nil, nil, fmt.Errorf("opening in-memory badger store: %w", err)
		}
		return eng, func() { _ = eng.Close() }, nil
	}

	eng, err := storage.OpenBadger(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening badger store at %s: %w", cfg.Storage.DataDir, err)
	}
	return eng, func() { _ = eng.Close() }, nil
}

// builtinEnrichments wires the one built-in enrichment the CLI knows how
// to construct standalone: embedding similarity, backed by the
// configured embedding provider through a cached, batch-adapted
// Embedder and an in-memory vector store sized to the configured
// dimensions.
func builtinEnrichments(cfg *config.Config) []adapter.Enrichment {
	apiPath := "/api/embeddings"
	if cfg.Embedding.Provider == "openai" {
		apiPath = "/v1/embeddings"
	}
	base, err := embed.NewEmbedder(&embed.Config{
		Provider:   cfg.Embedding.Provider,
		APIURL:     cfg.Embedding.APIURL,
		APIPath:    apiPath,
		APIKey:     os.Getenv("PLEXUS_EMBEDDING_API_KEY"),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    30 * time.Second,
	})
	if err != nil {
		logger.Printf("embedding provider unavailable, skipping embedding-similarity enrichment: %v", err)
		return nil
	}
	cached := embed.NewCachedEmbedder(base, 10_000)
	batch := embed.NewBatchEmbedder(cached)
	store := vectorstore.NewMemoryStore(cfg.Embedding.Dimensions)

	sim := enrichment.NewEmbeddingSimilarity(cfg.Embedding.Model, cfg.Embedding.SimilarityThreshold, "similar_to", batch, store)
	return []adapter.Enrichment{sim}
}

// readPayload reads path, treating "-" as stdin.
func readPayload(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// contextRegistry tracks every context id the serve subcommand has seen,
// so decay.Manager's ContextLister has something to enumerate. Engine
// itself deliberately exposes no enumeration method (see pkg/decay's
// doc comment on ContextLister); the CLI is the one caller that needs
// one, so it keeps its own.
type contextRegistry struct {
	ids []graph.ContextID
}

func newContextRegistry() *contextRegistry {
	return &contextRegistry{}
}

func (r *contextRegistry) seed(ids []graph.ContextID) {
	r.ids = append(r.ids, ids...)
}

func (r *contextRegistry) list() []graph.ContextID {
	return r.ids
}
