package inspect

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	yaml "gopkg.in/yaml.v3"

	"pstyle/config"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Writer outputs reports as YAML or as text using a template.
type Writer struct {
	format config.OutputFormat
	// custom template replaces built-in ones when set
	custom string
}

func NewWriter(conf *config.OutputConfig) *Writer {
	return &Writer{format: conf.Format, custom: conf.Template}
}

func (w *Writer) template(kind string) (*template.Template, error) {
	tmpl := template.New(kind).Funcs(sprig.FuncMap())
	if w.custom != "" {
		t, err := tmpl.Parse(w.custom)
		if err != nil {
			return nil, fmt.Errorf("unable to parse output template: %w", err)
		}
		return t, nil
	}
	text, err := templates.ReadFile("templates/" + kind + ".tmpl")
	if err != nil {
		return nil, fmt.Errorf("no text template for %s report: %w", kind, err)
	}
	return tmpl.Parse(string(text))
}

// Write outputs the report.
func (w *Writer) Write(out io.Writer, r Report) error {
	switch w.format {
	case config.OutputFormatText:
		tmpl, err := w.template(r.Kind())
		if err != nil {
			return err
		}
		if err := tmpl.Execute(out, r); err != nil {
			return fmt.Errorf("unable to expand %s template: %w", r.Kind(), err)
		}
		return nil
	default:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("unable to encode %s report: %w", r.Kind(), err)
		}
		return enc.Close()
	}
}
