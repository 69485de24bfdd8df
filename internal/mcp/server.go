package mcp

import (
	"context"
	"time"

	"harvest-mcp/internal/config"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// PlotStore is the persistence the plot tools need.
type PlotStore interface {
	CreatePlot(ctx context.Context, p forecast.Plot) (forecast.Plot, error)
	GetPlot(ctx context.Context, id string) (forecast.Plot, error)
	ListPlots(ctx context.Context) ([]forecast.Plot, error)
	RecordSample(ctx context.Context, plotID string, counts maturation.Counts, takenAt time.Time) (forecast.Sample, error)
	LatestSample(ctx context.Context, plotID string) (forecast.Sample, error)
	Snapshots(ctx context.Context) ([]forecast.Snapshot, error)
}

// Server exposes the harvest engine as MCP tools.
type Server struct {
	cfg       *config.AppConfig
	predictor *forecast.Predictor
	store     PlotStore
	version   string

	now         func() time.Time
	openBrowser func(path string) error
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.AppConfig, predictor *forecast.Predictor, store PlotStore, version string) *Server {
	return &Server{
		cfg:       cfg,
		predictor: predictor,
		store:     store,
		version:   version,
		now:       time.Now,
	}
}

// Start serves the tools over stdio until the client disconnects or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	srv := sdk.NewServer(&sdk.Implementation{Name: "harvest-mcp", Version: s.version}, nil)
	s.registerTools(srv)

	log.Info().Msg("MCP server listening on stdio")
	return srv.Run(ctx, &sdk.StdioTransport{})
}

// addTool registers a handler whose result is returned to the client as indented JSON text.
func addTool[In any](srv *sdk.Server, name, description string, handler func(context.Context, In) (any, error)) {
	sdk.AddTool(srv, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			start := time.Now()
			data, err := handler(ctx, in)
			if err != nil {
				log.Error().Err(err).Str("tool", name).Msg("Tool call failed")
				return nil, nil, err
			}
			log.Debug().Str("tool", name).Dur("elapsed", time.Since(start)).Msg("Tool call finished")
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: formatResult(data)}},
			}, nil, nil
		})
}
