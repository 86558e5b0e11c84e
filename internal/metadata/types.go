// Package metadata defines the artifacts a CI pipeline submits for a commit
// and the history entries built from them.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the Metadata variants.
type Kind string

// Metadata kinds
const (
	KindTestCoverage  Kind = "test-coverage"
	KindTestResult    Kind = "test-result"
	KindDocumentation Kind = "documentation"
	KindCodeQuality   Kind = "code-quality"
)

// Metadata is one of TestCoverage, TestResult, Documentation or CodeQuality.
type Metadata interface {
	Kind() Kind
}

// TestCoverage reports coverage percentages in [0,100].
type TestCoverage struct {
	Line      float64 `json:"line"`
	Statement float64 `json:"statement"`
	Function  float64 `json:"function"`
	Branch    float64 `json:"branch"`
}

// TestResult reports test counts.
type TestResult struct {
	Pass int `json:"pass"`
	Fail int `json:"fail"`
	Skip int `json:"skip"`
}

// Documentation marks a documentation link. It has no fields.
type Documentation struct{}

// CodeQuality carries a free-form quality grade such as "A" or "C-".
type CodeQuality struct {
	QualityRating string `json:"qualityRating"`
}

func (TestCoverage) Kind() Kind  { return KindTestCoverage }
func (TestResult) Kind() Kind    { return KindTestResult }
func (Documentation) Kind() Kind { return KindDocumentation }
func (CodeQuality) Kind() Kind   { return KindCodeQuality }

// Data wraps a Metadata value and (de)serializes it with its "type" tag.
type Data struct {
	Metadata
}

// MarshalJSON writes the variant fields preceded by "type".
func (d Data) MarshalJSON() ([]byte, error) {
	switch m := d.Metadata.(type) {
	case TestCoverage:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			TestCoverage
		}{KindTestCoverage, m})
	case TestResult:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			TestResult
		}{KindTestResult, m})
	case Documentation:
		return json.Marshal(struct {
			Type Kind `json:"type"`
		}{KindDocumentation})
	case CodeQuality:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			CodeQuality
		}{KindCodeQuality, m})
	case nil:
		return nil, fmt.Errorf("metadata: missing variant")
	default:
		return nil, fmt.Errorf("metadata: unsupported variant %T", m)
	}
}

// UnmarshalJSON decodes the variant named by "type". Unknown fields are
// rejected.
func (d *Data) UnmarshalJSON(b []byte) error {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	switch head.Type {
	case KindTestCoverage:
		var v struct {
			Type Kind `json:"type"`
			TestCoverage
		}
		if err := decodeStrict(b, &v); err != nil {
			return err
		}
		d.Metadata = v.TestCoverage
	case KindTestResult:
		// Whole counts may arrive in float form such as 10.0 or 1e2.
		var v struct {
			Type Kind    `json:"type"`
			Pass float64 `json:"pass"`
			Fail float64 `json:"fail"`
			Skip float64 `json:"skip"`
		}
		if err := decodeStrict(b, &v); err != nil {
			return err
		}
		d.Metadata = TestResult{Pass: int(v.Pass), Fail: int(v.Fail), Skip: int(v.Skip)}
	case KindDocumentation:
		var v struct {
			Type Kind `json:"type"`
		}
		if err := decodeStrict(b, &v); err != nil {
			return err
		}
		d.Metadata = Documentation{}
	case KindCodeQuality:
		var v struct {
			Type Kind `json:"type"`
			CodeQuality
		}
		if err := decodeStrict(b, &v); err != nil {
			return err
		}
		d.Metadata = v.CodeQuality
	default:
		return fmt.Errorf("metadata: unknown type %q", head.Type)
	}
	return nil
}

// Input is one submitted artifact reference.
type Input struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Data Data   `json:"data"`
}

// InputArray is an ordered list of inputs. Order is preserved end to end.
type InputArray []Input

// HistoryEntry is the snapshot of one commit's submitted metadata.
type HistoryEntry struct {
	SHA    string     `json:"sha"`
	URL    string     `json:"url"`
	Action string     `json:"action"`
	Items  InputArray `json:"items"`
}

// NewHistoryEntry builds the entry for a commit. A nil items list is
// stored as an empty array.
func NewHistoryEntry(items InputArray, sha, repoURL, actionURL string) HistoryEntry {
	if items == nil {
		items = InputArray{}
	}
	return HistoryEntry{
		SHA:    sha,
		URL:    repoURL,
		Action: actionURL,
		Items:  items,
	}
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
