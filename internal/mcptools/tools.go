// Package mcptools exposes commentary operations as MCP tools over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/camera"
	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/personality"
	"github.com/daikw/colorcommentary/internal/roster"
	"github.com/daikw/colorcommentary/internal/vision"
)

const serverName = "colorcommentary"

// NewServer registers the tools. analyzer may be nil, in which case
// analyze_image reports that the model is not configured.
func NewServer(version string, registry *personality.Registry, analyzer vision.Analyzer) *server.MCPServer {
	if registry == nil {
		registry = personality.NewRegistry()
	}
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))

	s.AddTool(ListPersonalitiesTool(), ListPersonalitiesHandler(registry))
	s.AddTool(NormalizeReplyTool(), NormalizeReplyHandler())
	s.AddTool(TrackNamesTool(), TrackNamesHandler())
	s.AddTool(AnalyzeImageTool(), AnalyzeImageHandler(analyzer, camera.NewEncoder()))
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	log.Debug().Msg("Serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("failed to serve MCP: %w", err)
	}
	return nil
}

func ListPersonalitiesTool() mcp.Tool {
	return mcp.NewTool("list_personalities",
		mcp.WithDescription("List the commentator personalities"),
	)
}

func ListPersonalitiesHandler(registry *personality.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(registry.List())
	}
}

func NormalizeReplyTool() mcp.Tool {
	return mcp.NewTool("normalize_reply",
		mcp.WithDescription("Normalize a raw model reply into a commentary update"),
		mcp.WithString("raw", mcp.Required(), mcp.Description("Raw reply text, usually JSON")),
	)
}

func NormalizeReplyHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("raw")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(commentary.NormalizeString(raw))
	}
}

func TrackNamesTool() mcp.Tool {
	return mcp.NewTool("track_names",
		mcp.WithDescription("Merge detected names into a roster"),
		mcp.WithString("roster", mcp.Description("Current roster, comma separated")),
		mcp.WithString("names", mcp.Description("Detected names, comma separated")),
		mcp.WithNumber("people_count", mcp.Description("Detected people count; negative means unknown")),
	)
}

func TrackNamesHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		current := splitList(req.GetString("roster", ""))
		names := splitList(req.GetString("names", ""))
		var count *int
		if n := req.GetFloat("people_count", -1); n >= 0 {
			c := int(n)
			count = &c
		}

		next, changed := roster.Track(current, names, count)
		return jsonResult(map[string]any{
			"roster":  []string(next),
			"changed": changed,
		})
	}
}

func AnalyzeImageTool() mcp.Tool {
	return mcp.NewTool("analyze_image",
		mcp.WithDescription("Comment on an image file as a live broadcaster"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a JPEG or PNG image")),
		mcp.WithString("personality", mcp.Description("Personality id"), mcp.DefaultString(personality.DefaultID)),
		mcp.WithString("previous", mcp.Description("Previous commentary line")),
		mcp.WithString("people", mcp.Description("Known names, comma separated")),
	)
}

func AnalyzeImageHandler(analyzer vision.Analyzer, encoder *camera.Encoder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if analyzer == nil {
			return mcp.NewToolResultError(vision.ErrNotConfigured.Error()), nil
		}
		path, err := req.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		image, err := loadImage(ctx, path, encoder)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, err := analyzer.Analyze(ctx, vision.Request{
			Image:              image,
			PreviousCommentary: req.GetString("previous", ""),
			Personality:        req.GetString("personality", personality.DefaultID),
			People:             splitList(req.GetString("people", "")),
		})
		if err != nil {
			if errors.Is(err, vision.ErrNotConfigured) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultErrorFromErr("analysis failed", err), nil
		}
		return jsonResult(commentary.Normalize(raw))
	}
}

func loadImage(ctx context.Context, path string, encoder *camera.Encoder) (string, error) {
	src := camera.NewFileSource(path)
	if err := src.Open(ctx); err != nil {
		return "", err
	}
	defer src.Close()

	img, err := src.Frame(ctx)
	if err != nil {
		return "", err
	}
	return encoder.Encode(img)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
