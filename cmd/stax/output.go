package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hokaccha/go-prettyjson"

	"github.com/deepnoodle-ai/stax/object"
)

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result object.Object, format string, colored bool) (string, error) {
	switch strings.ToLower(format) {
	case "":
		// Programs report through print and println. The final stack value
		// is only shown when a format is requested.
		return "", nil
	case "json":
		output, err := getOutputJSON(result, colored)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		if result == nil {
			return "", nil
		}
		return result.Inspect(), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// resultJSON is the JSON shape of a program result.
type resultJSON struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func getOutputJSON(result object.Object, colored bool) ([]byte, error) {
	if result == nil {
		result = object.Nil
	}
	doc := resultJSON{Type: result.Type().String(), Value: result.Interface()}
	if !colored {
		return json.MarshalIndent(doc, "", "  ")
	}
	return prettyjson.Marshal(doc)
}
