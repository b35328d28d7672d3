package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/semlab/srlkit-go/annotation"
)

// fakePipeline returns canned analysis results.
type fakePipeline struct {
	sentence *annotation.Sentence
	frames   []string
	err      error
}

func (f *fakePipeline) Annotate(_ context.Context, _ string) (*annotation.Sentence, error) {
	return f.sentence, f.err
}

func (f *fakePipeline) Frames(_ context.Context, _ string) ([]string, error) {
	return f.frames, f.err
}

// setupSession connects an SDK client to the server over in-memory
// transports.
func setupSession(t *testing.T, pipeline Pipeline) *mcp.ClientSession {
	t.Helper()

	s := New(pipeline, nil)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- s.Run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func callText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestListTools(t *testing.T) {
	session := setupSession(t, &fakePipeline{})

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)

	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}

	require.True(t, names["annotate_sentence"])
	require.True(t, names["frame_matching"])
}

func TestAnnotateSentence(t *testing.T) {
	sentence := &annotation.Sentence{Text: "The boy ate."}
	sentence.Set("Ingestion").AddLabel(annotation.LayerTarget,
		annotation.Label{Name: "Target", Start: 8, End: 11})

	session := setupSession(t, &fakePipeline{sentence: sentence})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "annotate_sentence",
		Arguments: map[string]any{"sentence": "The boy ate."},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got annotation.Sentence
	require.NoError(t, json.Unmarshal([]byte(callText(t, result)), &got))
	require.Equal(t, "The boy ate.", got.Text)
	require.Equal(t, []string{"Ingestion"}, got.Frames())
}

func TestFrameMatching(t *testing.T) {
	session := setupSession(t, &fakePipeline{frames: []string{"Motion", "Arriving"}})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "frame_matching",
		Arguments: map[string]any{"sentence": "He came home."},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.JSONEq(t, `["Motion","Arriving"]`, callText(t, result))
}

func TestCallTool_MissingSentence(t *testing.T) {
	session := setupSession(t, &fakePipeline{})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "frame_matching",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, callText(t, result), "sentence is required")
}

func TestCallTool_PipelineFailureIsToolError(t *testing.T) {
	session := setupSession(t, &fakePipeline{err: errors.New("engine unavailable")})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "annotate_sentence",
		Arguments: map[string]any{"sentence": "x"},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, callText(t, result), "engine unavailable")
}
