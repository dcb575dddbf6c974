package listener

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codado/codado/dockerish"
)

// supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Printer writes events to an output in one of the supported formats
type Printer struct {
	out    io.Writer
	format string
}

// NewPrinter returns a Printer, failing on unknown formats
func NewPrinter(out io.Writer, format string) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return &Printer{out: out, format: format}, nil
	}
	return nil, fmt.Errorf("unknown format %q, expected one of text, json, yaml", format)
}

// Print writes one event
func (p *Printer) Print(ev *dockerish.Event) error {
	switch p.format {
	case FormatJSON:
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(b))
		return err
	case FormatYAML:
		b, err := yaml.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.out, "---\n%s", b)
		return err
	}
	_, err := fmt.Fprintf(p.out, "%s %-24s %s\n", ev.Timestamp().UTC().Format(time.RFC3339Nano), ev.Name(), actorLabel(ev.Actor))
	return err
}

func actorLabel(a dockerish.Actor) string {
	switch {
	case a.Name != "" && a.ID != "" && a.Name != a.ID:
		return fmt.Sprintf("%s (%s)", a.Name, shortID(a.ID))
	case a.Name != "":
		return a.Name
	}
	return shortID(a.ID)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
