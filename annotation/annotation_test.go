package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_CreatesOnePerFrame(t *testing.T) {
	s := &Sentence{ID: "s1", Text: "The boy ate the apple."}

	first := s.Set("Ingestion")
	again := s.Set("Ingestion")
	other := s.Set("Food")

	require.Same(t, first, again)
	require.NotSame(t, first, other)
	require.Len(t, s.AnnotationSets, 2)
	require.Equal(t, "s1_f0", first.ID)
	require.Equal(t, "s1_f1", other.ID)
}

func TestSet_IDWithoutSentenceID(t *testing.T) {
	s := &Sentence{Text: "He ran."}

	require.Equal(t, "f0", s.Set("Motion").ID)
	require.Equal(t, "f1", s.Set("Arriving").ID)
}

func TestAddLabel_GroupsByLayer(t *testing.T) {
	set := &AnnotationSet{Frame: "Ingestion"}

	set.AddLabel(LayerTarget, Label{Name: "Target", Start: 8, End: 11})
	set.AddLabel(LayerFE, Label{Name: "Ingestor", Start: 0, End: 7})
	set.AddLabel(LayerFE, Label{Name: "Ingestibles", Start: 12, End: 21})

	require.Len(t, set.Layers, 2)
	require.Len(t, set.Layer(LayerFE).Labels, 2)
	require.Nil(t, set.Layer("POS"))
}

func TestFrames_SortedDistinct(t *testing.T) {
	s := &Sentence{Text: "x"}
	s.Set("Motion")
	s.Set("Arriving")
	s.Set("Motion")

	require.Equal(t, []string{"Arriving", "Motion"}, s.Frames())
}

func TestSlice_ClampsBounds(t *testing.T) {
	s := &Sentence{Text: "The boy ate the apple."}

	require.Equal(t, "boy", s.Slice(Label{Start: 4, End: 7}))
	require.Equal(t, "apple.", s.Slice(Label{Start: 16, End: 99}))
	require.Equal(t, "", s.Slice(Label{Start: 10, End: 4}))
}

func TestString_Summary(t *testing.T) {
	s := &Sentence{Text: "The boy ate."}
	set := s.Set("Ingestion")
	set.AddLabel(LayerTarget, Label{Name: "Target", Start: 8, End: 11})

	out := s.String()
	require.Contains(t, out, `"The boy ate."`)
	require.Contains(t, out, "Ingestion")
	require.Contains(t, out, `Target/Target="ate"`)
}
