package notifier

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EventTemplate overrides the title/footer of one notification kind.
type EventTemplate struct {
	Title  string `yaml:"title"`
	Footer string `yaml:"footer"`
}

// TemplateSet carries per-event overrides loaded from the template file.
// Empty fields fall back to the built-in wording.
type TemplateSet struct {
	NewSignal      EventTemplate `yaml:"new_signal"`
	PositionOpened EventTemplate `yaml:"position_opened"`
	TargetHit      EventTemplate `yaml:"target_hit"`
	StopLoss       EventTemplate `yaml:"stop_loss"`
	Reversal       EventTemplate `yaml:"reversal"`
	PositionClosed EventTemplate `yaml:"position_closed"`
}

// LoadTemplates reads the override file at path. An empty path yields the
// zero set (all defaults). Unknown keys are rejected to catch typos.
func LoadTemplates(path string) (TemplateSet, error) {
	var set TemplateSet
	if strings.TrimSpace(path) == "" {
		return set, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("read notify templates failed: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return set, fmt.Errorf("parse notify templates failed: %w", err)
	}
	return set, nil
}

func (t EventTemplate) title(def string) string {
	if s := strings.TrimSpace(t.Title); s != "" {
		return s
	}
	return def
}

func (t EventTemplate) footer(def string) string {
	if s := strings.TrimSpace(t.Footer); s != "" {
		return s
	}
	return def
}
