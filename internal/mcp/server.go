// Package mcp exposes the Orchestrator's search/ingest/stats operations as
// MCP tools over stdio, for agent integrations (the MCP entrypoint listed
// in SPEC_FULL.md §4.10).
package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/webindex/webindex/internal/config"
	"github.com/webindex/webindex/internal/orchestrator"
	"github.com/webindex/webindex/pkg/version"
)

// SearchInput is the search tool's input schema.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Mode  string `json:"mode,omitempty" jsonschema:"ranking mode: hybrid, bm25, or dense (default hybrid)"`
}

// SearchOutput is the search tool's output schema.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of search results"`
}

// SearchResultOutput is one ranked passage, mirroring §6's ScoredHit.
type SearchResultOutput struct {
	PageID    string  `json:"page_id"`
	PageTitle string  `json:"page_title"`
	PageURL   string  `json:"page_url"`
	ChunkID   string  `json:"chunk_id"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"timestamp"`
}

// IngestInput is the ingest tool's input schema. Path names an archive
// file already present on disk (the MCP server shares a filesystem with
// its caller, unlike a network-facing tool).
type IngestInput struct {
	Path  string `json:"path" jsonschema:"filesystem path to the saved archive file"`
	URL   string `json:"url,omitempty" jsonschema:"source URL; defaults to file:// + path"`
	Title string `json:"title,omitempty" jsonschema:"page title; defaults to the file name"`
}

// IngestOutput is the ingest tool's output schema.
type IngestOutput struct {
	PageID     string `json:"page_id"`
	URL        string `json:"url"`
	ChunkCount int    `json:"chunk_count"`
}

// StatsInput is the stats tool's (empty) input schema.
type StatsInput struct{}

// StatsOutput mirrors orchestrator.Stats.
type StatsOutput struct {
	PageCount    int   `json:"page_count"`
	PassageCount int   `json:"passage_count"`
	BytesOnDisk  int64 `json:"bytes_on_disk"`
	ModelReady   bool  `json:"model_ready"`
}

// Server bridges the Orchestrator to the MCP protocol.
type Server struct {
	sdk    *sdk.Server
	orch   *orchestrator.Orchestrator
	cfg    *config.Config
	logger *slog.Logger
}

// NewServer builds a Server and registers its tools.
func NewServer(orch *orchestrator.Orchestrator, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orch:   orch,
		cfg:    cfg,
		logger: logger,
	}

	s.sdk = sdk.NewServer(&sdk.Implementation{
		Name:    "webindex",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "search",
		Description: "Search the local web archive index by hybrid BM25+dense ranking (or bm25/dense alone via mode). Returns ranked passages with page metadata.",
	}, s.handleSearch)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "ingest",
		Description: "Ingest a saved web archive file (MHTML) into the index: decodes, extracts readable text, tokenizes, chunks, embeds, and persists it. Re-ingesting an already-indexed URL is a no-op.",
	}, s.handleIngest)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "stats",
		Description: "Report index size: page count, passage count, bytes on disk, and whether the embedding model is ready.",
	}, s.handleStats)

	s.logger.Debug("MCP tools registered", slog.Int("count", 3))
}

func (s *Server) handleSearch(ctx context.Context, _ *sdk.CallToolRequest, input SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query parameter is required and must be non-empty")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	mode := config.SearchMode(input.Mode)
	if mode == "" {
		mode = config.SearchModeHybrid
	}

	requestID := generateRequestID()
	s.logger.Info("search requested", slog.String("request_id", requestID), slog.String("query", input.Query))

	hits, err := s.orch.Search(ctx, input.Query, limit, mode)
	if err != nil {
		s.logger.Error("search failed", slog.String("request_id", requestID), slog.Any("error", err))
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, SearchResultOutput{
			PageID:    h.PageID,
			PageTitle: h.PageTitle,
			PageURL:   h.PageURL,
			ChunkID:   h.ChunkID,
			ChunkText: h.ChunkText,
			Score:     h.Score,
			Timestamp: h.Timestamp,
		})
	}
	return nil, out, nil
}

func (s *Server) handleIngest(ctx context.Context, _ *sdk.CallToolRequest, input IngestInput) (*sdk.CallToolResult, IngestOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, IngestOutput{}, errors.New("path parameter is required")
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("read archive file: %w", err)
	}

	url := input.URL
	if url == "" {
		url = "file://" + input.Path
	}
	title := input.Title
	if title == "" {
		title = filepath.Base(input.Path)
	}

	rec, err := s.orch.Ingest(ctx, data, url, title)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{PageID: rec.PageID, URL: rec.URL, ChunkCount: rec.ChunkCount}, nil
}

func (s *Server) handleStats(ctx context.Context, _ *sdk.CallToolRequest, _ StatsInput) (*sdk.CallToolResult, StatsOutput, error) {
	st, err := s.orch.Stats()
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		PageCount:    st.PageCount,
		PassageCount: st.PassageCount,
		BytesOnDisk:  st.BytesOnDisk,
		ModelReady:   st.ModelReady,
	}, nil
}

// Serve runs the MCP server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.sdk.Run(ctx, &sdk.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.Any("error", err))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
