package model

import (
	"fmt"
	"slices"
)

// Label is a personality label resolved through a LabelCodec.
type Label struct {
	Code int
	Name string
}

// LabelCodec maps label strings to the integer codes a classifier was
// trained on. A label's code is its position in the class list.
type LabelCodec struct {
	classes []string
	index   map[string]int
}

// NewLabelCodec builds a codec from an explicit, ordered class list.
func NewLabelCodec(classes []string) (*LabelCodec, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label codec needs at least one class")
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("label codec class %d is empty", i)
		}
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("label codec class %q is duplicated", c)
		}
		index[c] = i
	}
	return &LabelCodec{
		classes: slices.Clone(classes),
		index:   index,
	}, nil
}

// FitLabelCodec derives a codec from a label column: the unique labels in
// lexicographic order.
func FitLabelCodec(labels []string) (*LabelCodec, error) {
	uniq := slices.Clone(labels)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)
	return NewLabelCodec(uniq)
}

// Len returns the size of the label domain.
func (c *LabelCodec) Len() int {
	return len(c.classes)
}

// Classes returns the labels ordered by code.
func (c *LabelCodec) Classes() []string {
	return slices.Clone(c.classes)
}

// Labels returns every label in code order.
func (c *LabelCodec) Labels() []Label {
	out := make([]Label, len(c.classes))
	for i, name := range c.classes {
		out[i] = Label{Code: i, Name: name}
	}
	return out
}

// Encode returns the code for label.
func (c *LabelCodec) Encode(label string) (int, error) {
	code, ok := c.index[label]
	if !ok {
		return 0, fmt.Errorf("unknown label %q", label)
	}
	return code, nil
}

// EncodeAll encodes a label column.
func (c *LabelCodec) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		code, err := c.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// Decode returns the label for code, rejecting codes outside the domain.
func (c *LabelCodec) Decode(code int) (string, error) {
	if code < 0 || code >= len(c.classes) {
		return "", &CodecMismatchError{
			Reason: fmt.Sprintf("code %d outside label domain of size %d", code, len(c.classes)),
		}
	}
	return c.classes[code], nil
}
