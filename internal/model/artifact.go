package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/zeebo/xxh3"
)

// FormatVersion is the artifact format written by SaveBundle. Artifacts of
// any other version are rejected; there is no cross-version compatibility.
const FormatVersion = 1

// Paths locates the two artifacts of a trained model.
type Paths struct {
	Model string
	Codec string
}

// Metadata identifies the training run that produced a Bundle.
type Metadata struct {
	PairID             string
	DatasetFingerprint string
	TrainedAt          time.Time
}

// Bundle pairs a classifier with the label codec it was fitted alongside.
// It is immutable and may be shared by any number of quiz sessions.
type Bundle struct {
	Classifier Classifier
	Codec      *LabelCodec
	Meta       Metadata
}

// NewBundle checks that classifier and codec agree on the label domain.
func NewBundle(c Classifier, codec *LabelCodec, meta Metadata) (*Bundle, error) {
	if c == nil || codec == nil {
		return nil, fmt.Errorf("bundle needs both a classifier and a codec")
	}
	if c.NumClasses() != codec.Len() {
		return nil, &CodecMismatchError{
			Reason: fmt.Sprintf("classifier has %d classes, codec has %d labels", c.NumClasses(), codec.Len()),
		}
	}
	return &Bundle{Classifier: c, Codec: codec, Meta: meta}, nil
}

// PairID derives the identifier shared by both artifacts of one training run.
func PairID(datasetFingerprint string, classes []string, trainedAt time.Time) string {
	h := xxh3.New()
	_, _ = h.WriteString(datasetFingerprint)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strings.Join(classes, "\x1f"))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(trainedAt.UTC().Format(time.RFC3339Nano))
	return fmt.Sprintf("%016x", h.Sum64())
}

type modelDocument struct {
	FormatVersion int             `json:"format_version"`
	Kind          string          `json:"kind"`
	PairID        string          `json:"pair_id"`
	NumFeatures   int             `json:"num_features"`
	NumClasses    int             `json:"num_classes"`
	Body          json.RawMessage `json:"body"`
}

type codecDocument struct {
	FormatVersion      int       `json:"format_version"`
	PairID             string    `json:"pair_id"`
	Classes            []string  `json:"classes"`
	DatasetFingerprint string    `json:"dataset_fingerprint"`
	TrainedAt          time.Time `json:"trained_at"`
}

// SaveBundle writes the classifier and codec artifacts, replacing any
// existing files. Each file is replaced atomically but the pair is not: a
// crash between the two writes leaves mismatched pair IDs, which LoadBundle
// rejects.
func SaveBundle(paths Paths, b *Bundle) error {
	m, ok := b.Classifier.(bodyMarshaler)
	if !ok {
		return fmt.Errorf("classifier kind %q cannot be persisted", b.Classifier.Kind())
	}
	body, err := m.marshalBody()
	if err != nil {
		return fmt.Errorf("marshal classifier: %w", err)
	}

	modelData, err := json.MarshalIndent(modelDocument{
		FormatVersion: FormatVersion,
		Kind:          b.Classifier.Kind(),
		PairID:        b.Meta.PairID,
		NumFeatures:   b.Classifier.NumFeatures(),
		NumClasses:    b.Classifier.NumClasses(),
		Body:          body,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model artifact: %w", err)
	}

	codecData, err := json.MarshalIndent(codecDocument{
		FormatVersion:      FormatVersion,
		PairID:             b.Meta.PairID,
		Classes:            b.Codec.Classes(),
		DatasetFingerprint: b.Meta.DatasetFingerprint,
		TrainedAt:          b.Meta.TrainedAt.UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal codec artifact: %w", err)
	}

	if err := writeFileAtomic(paths.Model, modelData); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	if err := writeFileAtomic(paths.Codec, codecData); err != nil {
		return fmt.Errorf("write codec artifact: %w", err)
	}
	return nil
}

// LoadBundle reads and validates an artifact pair. Every failure is an
// *ArtifactLoadError naming the offending file.
func LoadBundle(paths Paths) (*Bundle, error) {
	cd, err := readCodecDocument(paths.Codec)
	if err != nil {
		return nil, &ArtifactLoadError{Path: paths.Codec, Err: err}
	}
	codec, err := NewLabelCodec(cd.Classes)
	if err != nil {
		return nil, &ArtifactLoadError{Path: paths.Codec, Err: err}
	}

	md, err := readModelDocument(paths.Model)
	if err != nil {
		return nil, &ArtifactLoadError{Path: paths.Model, Err: err}
	}
	if md.PairID != cd.PairID {
		return nil, &ArtifactLoadError{
			Path: paths.Model,
			Err:  fmt.Errorf("%w: model pair %s, codec pair %s", ErrPairMismatch, md.PairID, cd.PairID),
		}
	}
	if md.NumFeatures != FeatureCount {
		return nil, &ArtifactLoadError{
			Path: paths.Model,
			Err:  fmt.Errorf("model expects %d features, the quiz has %d", md.NumFeatures, FeatureCount),
		}
	}
	decode, ok := decoders[md.Kind]
	if !ok {
		return nil, &ArtifactLoadError{Path: paths.Model, Err: fmt.Errorf("unknown classifier kind %q", md.Kind)}
	}
	clf, err := decode(md.Body, md.NumFeatures, md.NumClasses)
	if err != nil {
		return nil, &ArtifactLoadError{Path: paths.Model, Err: err}
	}

	b, err := NewBundle(clf, codec, Metadata{
		PairID:             cd.PairID,
		DatasetFingerprint: cd.DatasetFingerprint,
		TrainedAt:          cd.TrainedAt,
	})
	if err != nil {
		return nil, &ArtifactLoadError{Path: paths.Model, Err: err}
	}
	return b, nil
}

func readModelDocument(path string) (*modelDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(raw, false); err != nil {
		return nil, err
	}
	var doc modelDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return &doc, nil
}

func readCodecDocument(path string) (*codecDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(raw, true); err != nil {
		return nil, err
	}
	var doc codecDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode codec artifact: %w", err)
	}
	return &doc, nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".persona-artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
