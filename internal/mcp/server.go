package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/history"
	"github.com/Aman-CERP/findtext/internal/preflight"
	"github.com/Aman-CERP/findtext/internal/search"
	"github.com/Aman-CERP/findtext/pkg/version"
)

// ServerName is the MCP implementation name.
const ServerName = "findtext"

// Limits applied when Options leaves them zero.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Options configures a Server.
type Options struct {
	// Root is searched when a call names no path.
	Root string

	// Search is the base search configuration; calls may override the
	// concurrency.
	Search search.Options

	DefaultLimit int
	MaxLimit     int

	// History records each call when set, and enables the history resource.
	History *history.Store

	// HistoryLimit bounds the stored entries (0 = unbounded).
	HistoryLimit int

	Logger *slog.Logger
}

// Server is the MCP server for findtext. It exposes the streaming search
// as the find_text tool.
type Server struct {
	mcp    *mcp.Server
	opts   Options
	logger *slog.Logger

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

const findTextDescription = "Find every occurrence of a text in all files under a directory. " +
	"Matching is case-insensitive and overlapping; each occurrence is reported as file, line, and character offset (both 1-based). " +
	"Files that are not valid text are skipped."

// NewServer creates a new MCP server.
func NewServer(opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}
	opts.DefaultLimit = min(opts.DefaultLimit, opts.MaxLimit)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	if opts.History != nil {
		s.registerHistoryResource()
	}

	return s
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "find_text", Description: findTextDescription},
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_text",
		Description: findTextDescription,
	}, s.mcpFindTextHandler)
	s.logger.Debug("Registered tool", slog.String("name", "find_text"))
}

// mcpFindTextHandler adapts FindText to the SDK. Invalid input is a
// protocol error; a search that fails while running is a tool error.
func (s *Server) mcpFindTextHandler(ctx context.Context, _ *mcp.CallToolRequest, input FindTextInput) (
	*mcp.CallToolResult,
	FindTextOutput,
	error,
) {
	out, err := s.FindText(ctx, input)
	if err != nil {
		mapped := MapError(err)
		if mapped.Code == ErrCodeInvalidParams {
			return nil, FindTextOutput{}, mapped.Wire()
		}
		return nil, FindTextOutput{}, mapped
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatFindText(input.Query, out)}},
	}
	return result, out, nil
}

// FindText runs one search to completion, stopping it once the limit is
// reached.
func (s *Server) FindText(ctx context.Context, input FindTextInput) (FindTextOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	if strings.TrimSpace(input.Query) == "" {
		return FindTextOutput{}, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	if input.Concurrency < 0 {
		return FindTextOutput{}, NewInvalidParamsError("concurrency must not be negative")
	}

	path := input.Path
	if path == "" {
		path = s.opts.Root
	}
	root, err := preflight.ValidateRoot(path)
	if err != nil {
		return FindTextOutput{}, err
	}

	limit := clampLimit(input.Limit, s.opts.DefaultLimit, 1, s.opts.MaxLimit)
	opts := s.opts.Search
	if input.Concurrency > 0 {
		opts.Concurrency = input.Concurrency
	}
	opts.Logger = s.logger

	s.logger.Info("find_text started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("root", root),
		slog.Int("limit", limit))

	session, err := search.Search(ctx, input.Query, root, opts)
	if err != nil {
		return FindTextOutput{}, err
	}

	out := FindTextOutput{Occurrences: make([]search.Occurrence, 0, min(limit, 64))}
	for o := range session.Results() {
		if len(out.Occurrences) >= limit {
			out.Truncated = true
			session.Cancel()
			break
		}
		out.Occurrences = append(out.Occurrences, o)
	}
	err = session.Wait()
	s.record(session)

	stats := session.Stats()
	out.FilesScanned = stats.FilesScanned
	out.FilesSkipped = stats.FilesSkipped

	if err == nil && session.Cancelled() && !out.Truncated {
		// The client went away or the request deadline passed.
		err = ctx.Err()
		if err == nil {
			err = context.Canceled
		}
	}

	duration := time.Since(start)
	if err != nil {
		s.logger.Error("find_text failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return FindTextOutput{}, err
	}

	s.logger.Info("find_text completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("occurrences", len(out.Occurrences)),
		slog.Bool("truncated", out.Truncated))
	return out, nil
}

// record stores the finished session in history, if enabled. Failures
// are logged and never fail the call.
func (s *Server) record(session *search.Session) {
	s.mu.RLock()
	store := s.opts.History
	s.mu.RUnlock()
	if store == nil {
		return
	}

	// The request context may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.Record(ctx, history.FromSession(session)); err != nil {
		s.logger.Warn("failed to record search", slog.String("error", err.Error()))
		return
	}
	if _, err := store.Prune(ctx, s.opts.HistoryLimit); err != nil {
		s.logger.Warn("failed to prune history", slog.String("error", err.Error()))
	}
}

// Serve runs the server on the given transport until ctx is done or the
// client disconnects.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return fterrors.New(fterrors.ErrCodeTransport, "MCP server stopped", err)
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fterrors.New(fterrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown transport: %s (supported: stdio)", transport), nil)
	}
}

// Close releases the history store, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.History == nil {
		return nil
	}
	err := s.opts.History.Close()
	s.opts.History = nil
	return err
}

func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
