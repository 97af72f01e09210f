package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/snaptune/internal/catalog"
	"github.com/kalambet/snaptune/internal/lyrics"
	"github.com/kalambet/snaptune/internal/ranking"
)

// MCPRanker abstracts similarity ranking for the MCP layer.
type MCPRanker interface {
	Rank(ctx context.Context, description string, candidates []catalog.Song, topN int) ([]ranking.Match, error)
}

// MCPLyricsWriter abstracts lyrics generation for the MCP layer.
type MCPLyricsWriter interface {
	Write(ctx context.Context, description, mood, genre, language string) (string, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Catalog *catalog.Catalog
	Ranker  MCPRanker
	Writer  MCPLyricsWriter
}

// NewMCPServer creates an MCP server exposing song recommendation and lyrics
// generation to agent clients. Recommendation here takes a ready description;
// photo analysis stays behind the HTTP API where the upload lives.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"snaptune",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("snaptune matches moments to music: rank catalog songs against a scene description and write short lyrics for it."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_songs",
			mcp.WithDescription("Rank catalog songs by similarity to a scene or mood description."),
			mcp.WithString("description", mcp.Description("Scene or mood description to match against"), mcp.Required()),
			mcp.WithArray("languages", mcp.Description("Optional language categories to keep")),
			mcp.WithArray("artists", mcp.Description("Optional artist names to keep")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpRecommendSongs(deps),
	)

	s.AddTool(
		mcp.NewTool("write_lyrics",
			mcp.WithDescription("Write short verse/chorus song lyrics for a scene description."),
			mcp.WithString("description", mcp.Description("Scene description the lyrics should capture"), mcp.Required()),
			mcp.WithString("mood", mcp.Description("Song mood (default happy)")),
			mcp.WithString("genre", mcp.Description("Song genre (default pop)")),
			mcp.WithString("language", mcp.Description("Lyrics language (default English)")),
		),
		mcpWriteLyrics(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://songs",
			"Song Catalog",
			mcp.WithResourceDescription("All catalog songs (artist, track, language)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://styles",
			"Song Styles",
			mcp.WithResourceDescription("Supported moods and genres"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStyles(),
	)

	return s
}

func mcpRecommendSongs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("description")
		if err != nil {
			return mcpError("description is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		candidates := deps.Catalog.Filter(
			req.GetStringSlice("languages", nil),
			req.GetStringSlice("artists", nil),
		)
		if len(candidates) == 0 {
			return mcpText("[]"), nil
		}

		matches, err := deps.Ranker.Rank(ctx, description, candidates, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("ranking failed: %v", err)), nil
		}

		type matchResult struct {
			Artist   string  `json:"artist"`
			Track    string  `json:"track"`
			Language string  `json:"language"`
			Score    float32 `json:"score"`
		}
		results := make([]matchResult, len(matches))
		for i, m := range matches {
			results[i] = matchResult{
				Artist:   m.Song.Artist,
				Track:    m.Song.Track,
				Language: m.Song.Language,
				Score:    m.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpWriteLyrics(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("description")
		if err != nil {
			return mcpError("description is required"), nil
		}

		text, err := deps.Writer.Write(ctx,
			description,
			req.GetString("mood", ""),
			req.GetString("genre", ""),
			req.GetString("language", ""),
		)
		if err != nil {
			return mcpError(fmt.Sprintf("lyrics generation failed: %v", err)), nil
		}
		return mcpText(text), nil
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		songs := deps.Catalog.Songs()
		out := make([]songSummary, len(songs))
		for i, s := range songs {
			out[i] = songSummary{ID: s.ID, Artist: s.Artist, Track: s.Track, Language: s.Language}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceStyles() server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(map[string][]string{
			"moods":  lyrics.Moods,
			"genres": lyrics.Genres,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal styles: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
