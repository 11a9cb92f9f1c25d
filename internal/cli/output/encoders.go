package output

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"
)

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(w io.Writer, data any) error

// Format calls f.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// JSON writes data as two-space indented JSON.
var JSON = FormatterFunc(func(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
})

// YAML writes data as a single YAML document.
var YAML = FormatterFunc(func(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
})
