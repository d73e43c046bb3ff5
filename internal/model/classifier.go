package model

import "fmt"

const (
	// FeatureCount is the number of quiz answers the classifier consumes.
	FeatureCount = 5

	// FeatureDomain is the number of canonical values each feature takes.
	FeatureDomain = 3
)

// Classifier is a fitted multi-class model over small discrete inputs.
// Implementations are immutable once fitted and safe for concurrent use.
type Classifier interface {
	// Kind identifies the implementation in serialized artifacts.
	Kind() string

	NumFeatures() int
	NumClasses() int

	// Predict returns the most probable class code for x.
	Predict(x []int) (int, error)

	// PredictProba returns one probability per class code for x.
	PredictProba(x []int) ([]float64, error)
}

// bodyMarshaler is implemented by classifiers that can be persisted.
type bodyMarshaler interface {
	marshalBody() ([]byte, error)
}

// bodyDecoder rebuilds a classifier from its serialized body.
type bodyDecoder func(body []byte, numFeatures, numClasses int) (Classifier, error)

// decoders holds every classifier kind LoadBundle can restore.
var decoders = map[string]bodyDecoder{
	KindDecisionTree: decodeDecisionTree,
}

func checkInput(x []int, numFeatures int) error {
	if len(x) != numFeatures {
		return fmt.Errorf("input has %d features, classifier expects %d", len(x), numFeatures)
	}
	return nil
}
