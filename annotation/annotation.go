// Package annotation holds the frame-annotation data model produced by the
// semantic parsing pipeline: a sentence, the frame instances evoked in it,
// and the labeled character spans that realize each frame element.
package annotation

import (
	"fmt"
	"sort"
	"strings"
)

// Label is a named character span over the sentence text. Start and End are
// byte offsets; End is exclusive.
type Label struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Layer groups labels of one kind within a frame instance, e.g. "Target"
// for the frame-evoking word and "FE" for frame elements.
type Layer struct {
	Name   string  `json:"name"`
	Labels []Label `json:"labels,omitempty"`
}

// AnnotationSet is one frame instance: the frame it evokes plus the layers
// realizing it.
type AnnotationSet struct {
	ID     string  `json:"id,omitempty"`
	Frame  string  `json:"frame"`
	Layers []Layer `json:"layers,omitempty"`
}

// Sentence is a text with its frame instances.
type Sentence struct {
	ID             string          `json:"id,omitempty"`
	Text           string          `json:"text"`
	AnnotationSets []AnnotationSet `json:"annotationSets,omitempty"`
}

const (
	LayerTarget = "Target"
	LayerFE     = "FE"
)

// Layer returns the named layer, or nil when absent.
func (a *AnnotationSet) Layer(name string) *Layer {
	for i := range a.Layers {
		if a.Layers[i].Name == name {
			return &a.Layers[i]
		}
	}

	return nil
}

// AddLabel appends a label to the named layer, creating the layer on first
// use.
func (a *AnnotationSet) AddLabel(layer string, label Label) {
	if l := a.Layer(layer); l != nil {
		l.Labels = append(l.Labels, label)

		return
	}

	a.Layers = append(a.Layers, Layer{Name: layer, Labels: []Label{label}})
}

// Frames returns the distinct frame names evoked in the sentence, sorted.
func (s *Sentence) Frames() []string {
	seen := make(map[string]struct{}, len(s.AnnotationSets))

	for _, set := range s.AnnotationSets {
		seen[set.Frame] = struct{}{}
	}

	frames := make([]string, 0, len(seen))
	for frame := range seen {
		frames = append(frames, frame)
	}

	sort.Strings(frames)

	return frames
}

// Set returns the annotation set for the given frame, creating it when
// absent. Frame instances are keyed by frame name: the pipeline emits at
// most one instance per frame per sentence.
func (s *Sentence) Set(frame string) *AnnotationSet {
	for i := range s.AnnotationSets {
		if s.AnnotationSets[i].Frame == frame {
			return &s.AnnotationSets[i]
		}
	}

	id := fmt.Sprintf("f%d", len(s.AnnotationSets))
	if s.ID != "" {
		id = s.ID + "_" + id
	}

	s.AnnotationSets = append(s.AnnotationSets, AnnotationSet{
		ID:    id,
		Frame: frame,
	})

	return &s.AnnotationSets[len(s.AnnotationSets)-1]
}

// Slice returns the sentence text covered by the label, clamped to the
// text bounds.
func (s *Sentence) Slice(label Label) string {
	start, end := label.Start, label.End

	if start < 0 {
		start = 0
	}

	if end > len(s.Text) {
		end = len(s.Text)
	}

	if start >= end {
		return ""
	}

	return s.Text[start:end]
}

// String renders a compact one-line summary, useful in logs and CLI output.
func (s *Sentence) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%q", s.Text)

	for _, set := range s.AnnotationSets {
		fmt.Fprintf(&b, " [%s", set.Frame)

		for _, layer := range set.Layers {
			for _, label := range layer.Labels {
				fmt.Fprintf(&b, " %s/%s=%q", layer.Name, label.Name, s.Slice(label))
			}
		}

		b.WriteString("]")
	}

	return b.String()
}
