package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Cache actions.
const (
	CacheStats = "stats"
	CacheClear = "clear"
	CachePrune = "prune"
)

// CacheTool handles the schema_cache MCP tool.
type CacheTool struct {
	cache CacheAdmin
}

// NewCacheTool creates a CacheTool.
func NewCacheTool(cache CacheAdmin) *CacheTool {
	return &CacheTool{cache: cache}
}

// Definition returns the MCP tool definition for registration.
func (t *CacheTool) Definition() mcp.Tool {
	return mcp.NewTool("schema_cache",
		mcp.WithDescription(
			"Inspect or reset the local template cache. Use 'clear' after templates were "+
				"edited upstream, 'prune' to drop only expired entries.",
		),
		mcp.WithString("action",
			mcp.Description("stats (default), clear or prune"),
			mcp.DefaultString(CacheStats),
			mcp.Enum(CacheStats, CacheClear, CachePrune),
		),
	)
}

// Handle processes the schema_cache tool call.
func (t *CacheTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := strings.TrimSpace(req.GetString("action", CacheStats))

	switch action {
	case CacheStats, "":
		st, err := t.cache.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading cache stats: %w", err)
		}
		var sb strings.Builder
		sb.WriteString("# 🗄️ Template Cache\n\n")
		fmt.Fprintf(&sb, "- **Path**: %s\n", st.Path)
		fmt.Fprintf(&sb, "- **Templates**: %d\n", st.Templates)
		fmt.Fprintf(&sb, "- **Class lookups**: %d\n", st.ClassEntries)
		fmt.Fprintf(&sb, "- **Expired**: %d\n", st.ExpiredEntries)
		fmt.Fprintf(&sb, "- **TTL**: %s\n", time.Duration(st.TTLSeconds)*time.Second)
		if st.OldestFetch != "" {
			fmt.Fprintf(&sb, "- **Oldest entry**: %s\n", st.OldestFetch)
		}
		return mcp.NewToolResultText(sb.String()), nil

	case CacheClear:
		n, err := t.cache.Clear(ctx)
		if err != nil {
			return nil, fmt.Errorf("clearing cache: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("✅ Cache cleared: %d entries removed.", n)), nil

	case CachePrune:
		n, err := t.cache.Prune(ctx)
		if err != nil {
			return nil, fmt.Errorf("pruning cache: %w", err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("✅ Cache pruned: %d expired entries removed.", n)), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q: use stats, clear or prune", action)), nil
	}
}
