// Package mcpserver exposes the semantic parsing pipeline as MCP tools, so
// agent frontends can annotate sentences over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/semlab/srlkit-go/annotation"
)

// Pipeline is the analysis surface the server exposes. The production
// implementation parses the sentence and runs inference; tests inject
// fakes.
type Pipeline interface {
	// Annotate returns the fully annotated sentence.
	Annotate(ctx context.Context, sentence string) (*annotation.Sentence, error)
	// Frames returns only the frame names evoked in the sentence.
	Frames(ctx context.Context, sentence string) ([]string, error)
}

// Server serves the pipeline over MCP.
type Server struct {
	log    *slog.Logger
	server *mcp.Server
}

// New creates a Server around the pipeline.
func New(pipeline Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		log: logger.With("component", "mcpserver"),
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "srlkit",
			Version: "1.0.0",
		}, nil),
	}

	s.server.AddTool(&mcp.Tool{
		Name:        "annotate_sentence",
		Description: "Annotate a sentence with frames and frame elements",
		InputSchema: sentenceSchema(),
	}, handler(s.log, pipeline.Annotate))

	s.server.AddTool(&mcp.Tool{
		Name:        "frame_matching",
		Description: "List the frames evoked in a sentence",
		InputSchema: sentenceSchema(),
	}, handler(s.log, pipeline.Frames))

	return s
}

// Serve reads MCP requests from in and writes responses to out, blocking
// until ctx is cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("serving")

	return s.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	})
}

// Run serves over an explicit transport. Tests use in-memory transports.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// sentenceArgs is the input shape shared by both tools.
type sentenceArgs struct {
	Sentence string `json:"sentence"`
}

func sentenceSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"sentence": {
				Type:        "string",
				Description: "The sentence to analyze",
			},
		},
	}
}

// handler wraps an analysis function as an MCP tool handler: arguments are
// decoded, the result is returned as JSON text, and failures come back as
// tool errors rather than protocol errors.
func handler[T any](log *slog.Logger, fn func(ctx context.Context, sentence string) (T, error)) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args sentenceArgs
		if raw := req.Params.Arguments; raw != nil {
			if err := json.Unmarshal(raw, &args); err != nil {
				return toolError(fmt.Errorf("bad arguments: %w", err)), nil
			}
		}

		if args.Sentence == "" {
			return toolError(fmt.Errorf("sentence is required")), nil
		}

		value, err := fn(ctx, args.Sentence)
		if err != nil {
			log.Error("tool call failed", "tool", req.Params.Name, "error", err)

			return toolError(err), nil
		}

		payload, err := json.Marshal(value)
		if err != nil {
			return toolError(err), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
