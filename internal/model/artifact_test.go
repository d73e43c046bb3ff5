package model

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	X, y := separableData()
	tree, err := FitDecisionTree(X, y, 3, DefaultTreeParams())
	require.NoError(t, err)
	codec, err := NewLabelCodec([]string{"Ambivert", "Extrovert", "Introvert"})
	require.NoError(t, err)

	trainedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := NewBundle(tree, codec, Metadata{
		PairID:             PairID("abc", codec.Classes(), trainedAt),
		DatasetFingerprint: "abc",
		TrainedAt:          trainedAt,
	})
	require.NoError(t, err)
	return b
}

func testPaths(t *testing.T) Paths {
	dir := t.TempDir()
	return Paths{
		Model: filepath.Join(dir, "models", "quiz_model.json"),
		Codec: filepath.Join(dir, "models", "label_codec.json"),
	}
}

func TestSaveLoadBundle_RoundTrip(t *testing.T) {
	b := testBundle(t)
	paths := testPaths(t)
	require.NoError(t, SaveBundle(paths, b))

	loaded, err := LoadBundle(paths)
	require.NoError(t, err)

	assert.Equal(t, b.Codec.Classes(), loaded.Codec.Classes())
	assert.Equal(t, b.Meta.PairID, loaded.Meta.PairID)
	assert.Equal(t, "abc", loaded.Meta.DatasetFingerprint)
	assert.True(t, b.Meta.TrainedAt.Equal(loaded.Meta.TrainedAt))

	X, _ := separableData()
	for _, x := range X {
		want, _ := b.Classifier.PredictProba(x)
		got, err := loaded.Classifier.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSaveBundle_OverwritesExisting(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(paths.Model), 0o755))
	require.NoError(t, os.WriteFile(paths.Model, []byte("stale"), 0o644))

	require.NoError(t, SaveBundle(paths, testBundle(t)))
	_, err := LoadBundle(paths)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(paths.Model))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestLoadBundle_MissingFiles(t *testing.T) {
	paths := testPaths(t)
	_, err := LoadBundle(paths)

	var loadErr *ArtifactLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, paths.Codec, loadErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadBundle_PairMismatch(t *testing.T) {
	paths := testPaths(t)
	require.NoError(t, SaveBundle(paths, testBundle(t)))

	// Retrain with a different timestamp and keep only the new codec.
	other := testBundle(t)
	other.Meta.TrainedAt = other.Meta.TrainedAt.Add(time.Hour)
	other.Meta.PairID = PairID("abc", other.Codec.Classes(), other.Meta.TrainedAt)
	otherPaths := testPaths(t)
	require.NoError(t, SaveBundle(otherPaths, other))
	codecData, err := os.ReadFile(otherPaths.Codec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(paths.Codec, codecData, 0o644))

	_, err = LoadBundle(paths)
	var loadErr *ArtifactLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, ErrPairMismatch))
}

func TestLoadBundle_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		target func(Paths) string
		mutate func(string) string
	}{
		{
			name:   "codec not json",
			target: func(p Paths) string { return p.Codec },
			mutate: func(string) string { return "not json" },
		},
		{
			name:   "codec wrong version",
			target: func(p Paths) string { return p.Codec },
			mutate: func(s string) string {
				return strings.Replace(s, `"format_version": 1`, `"format_version": 2`, 1)
			},
		},
		{
			name:   "codec duplicate classes",
			target: func(p Paths) string { return p.Codec },
			mutate: func(s string) string { return strings.Replace(s, `"Extrovert"`, `"Ambivert"`, 1) },
		},
		{
			name:   "model unknown kind",
			target: func(p Paths) string { return p.Model },
			mutate: func(s string) string { return strings.Replace(s, KindDecisionTree, "neural_net", 1) },
		},
		{
			name:   "model wrong feature count",
			target: func(p Paths) string { return p.Model },
			mutate: func(s string) string {
				return strings.Replace(s, `"num_features": 5`, `"num_features": 4`, 1)
			},
		},
		{
			name:   "model missing body",
			target: func(p Paths) string { return p.Model },
			mutate: func(s string) string { return strings.Replace(s, `"body"`, `"bodx"`, 1) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testPaths(t)
			require.NoError(t, SaveBundle(paths, testBundle(t)))

			target := tt.target(paths)
			data, err := os.ReadFile(target)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(target, []byte(tt.mutate(string(data))), 0o644))

			_, err = LoadBundle(paths)
			var loadErr *ArtifactLoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, target, loadErr.Path)
		})
	}
}

func TestLoadBundle_RejectsTreeOnOtherFeatureCount(t *testing.T) {
	X := [][]int{{0, 0, 1, 2}, {1, 1, 1, 1}, {2, 2, 0, 0}}
	y := []int{0, 1, 2}
	tree, err := FitDecisionTree(X, y, 3, DefaultTreeParams())
	require.NoError(t, err)
	codec, err := NewLabelCodec([]string{"Ambivert", "Extrovert", "Introvert"})
	require.NoError(t, err)
	trainedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := NewBundle(tree, codec, Metadata{
		PairID:             PairID("abc", codec.Classes(), trainedAt),
		DatasetFingerprint: "abc",
		TrainedAt:          trainedAt,
	})
	require.NoError(t, err)

	paths := testPaths(t)
	require.NoError(t, SaveBundle(paths, b))

	_, err = LoadBundle(paths)
	var loadErr *ArtifactLoadError
	require.True(t, errors.As(err, &loadErr), "got %v", err)
	assert.Equal(t, paths.Model, loadErr.Path)
	assert.Contains(t, loadErr.Error(), "features")
}

func TestNewBundle_ClassCountMismatch(t *testing.T) {
	X, y := separableData()
	tree, err := FitDecisionTree(X, y, 3, DefaultTreeParams())
	require.NoError(t, err)
	codec, err := NewLabelCodec([]string{"Introvert", "Extrovert"})
	require.NoError(t, err)

	_, err = NewBundle(tree, codec, Metadata{})
	var mismatch *CodecMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestPairID_Deterministic(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := PairID("f", []string{"A", "B"}, at)
	assert.Equal(t, a, PairID("f", []string{"A", "B"}, at))
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, PairID("f", []string{"B", "A"}, at))
	assert.NotEqual(t, a, PairID("g", []string{"A", "B"}, at))
}
