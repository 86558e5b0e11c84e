package metadata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kyleking/gh-metahistory/internal/result"
)

// Issue is a single schema violation at a JSON path.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError lists every schema violation found in an input.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

//go:embed input.schema.json
var inputSchemaJSON string

const inputSchemaURL = "https://github.com/kyleking/gh-metahistory/input.schema.json"

var compileInputSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(inputSchemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(inputSchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(inputSchemaURL)
})

var printer = message.NewPrinter(language.English)

// InputArraySchema validates raw JSON into an InputArray.
type InputArraySchema struct{}

// Parse checks raw against the input schema: an array of objects with
// exactly name, url and data, where data is one of the metadata variants.
func (InputArraySchema) Parse(raw []byte) result.Result[InputArray] {
	return result.From[InputArray](ParseInputArray(raw))
}

// ParseInputArray validates and decodes raw JSON into an InputArray.
func ParseInputArray(raw []byte) (InputArray, error) {
	sch, err := compileInputSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile input schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: "expected array: " + err.Error()}}}
	}
	if err := sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		return nil, &ValidationError{Issues: issuesOf(verr)}
	}

	var out InputArray
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}}
	}
	return out, nil
}

// issuesOf flattens the leaves of a schema error tree into issues.
func issuesOf(verr *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}

		switch k := e.ErrorKind.(type) {
		case *kind.Required:
			for _, name := range k.Missing {
				path := append(slices.Clone(e.InstanceLocation), name)
				issues = append(issues, Issue{Path: jsonPath(path), Message: "required"})
			}
		case *kind.AdditionalProperties:
			issues = append(issues, Issue{
				Path:    jsonPath(e.InstanceLocation),
				Message: "unrecognized keys: " + strings.Join(k.Properties, ", "),
			})
		default:
			issues = append(issues, Issue{Path: jsonPath(e.InstanceLocation), Message: e.ErrorKind.LocalizedString(printer)})
		}
	}
	walk(verr)

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}

// jsonPath renders an instance location as [0].data.line.
func jsonPath(location []string) string {
	var b strings.Builder
	for _, segment := range location {
		if _, err := strconv.Atoi(segment); err == nil {
			b.WriteString("[" + segment + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}
