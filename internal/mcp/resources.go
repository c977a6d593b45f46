package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/findtext/internal/history"
)

// HistoryURI is the URI of the recent-searches resource.
const HistoryURI = "findtext://history"

// historyResourceLimit is how many searches the resource lists.
const historyResourceLimit = 20

// registerHistoryResource registers the recent-searches resource.
func (s *Server) registerHistoryResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "history",
			URI:         HistoryURI,
			Description: "Most recent searches, newest first",
			MIMEType:    "application/json",
		},
		s.makeHistoryHandler(),
	)
}

// makeHistoryHandler creates a handler for the history resource.
func (s *Server) makeHistoryHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		content, err := s.readHistory(ctx)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      HistoryURI,
					MIMEType: "application/json",
					Text:     content,
				},
			},
		}, nil
	}
}

// readHistory renders the recent searches as a JSON array.
func (s *Server) readHistory(ctx context.Context) (string, error) {
	s.mu.RLock()
	store := s.opts.History
	s.mu.RUnlock()

	if store == nil {
		return "", NewResourceNotFoundError(HistoryURI)
	}

	entries, err := store.Recent(ctx, historyResourceLimit)
	if err != nil {
		return "", MapError(err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", MapError(err)
	}
	return string(content), nil
}
