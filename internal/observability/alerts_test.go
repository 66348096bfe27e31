package observability

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

var metricName = regexp.MustCompile(`prospector_[a-z_]+`)

func TestAlertRulesReferenceExportedMetrics(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "prospector.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}
	if len(spec.Groups) != 1 || spec.Groups[0].Name != "prospector" {
		t.Fatalf("expected a single prospector group, got %+v", spec.Groups)
	}

	metrics := NewMetrics()
	metrics.ObserveNarrative(true)
	metrics.ObserveReport(1, false)
	metrics.ObserveDataset(true, 1)
	_ = metrics.Jobs().Track("report:render").End(errors.New("converter down"))
	exported := scrape(t, metrics)

	severities := map[string]string{
		"HighErrorRate":          "critical",
		"NarrativeFallbackSpike": "warning",
		"ReportJobFailures":      "warning",
	}
	rules := spec.Groups[0].Rules
	if len(rules) != len(severities) {
		t.Fatalf("expected %d rules, got %d", len(severities), len(rules))
	}
	for _, rule := range rules {
		want, ok := severities[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != want {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["description"] == "" {
			t.Fatalf("rule %s must include summary and description annotations", rule.Alert)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
		for _, name := range metricName.FindAllString(rule.Expr, -1) {
			if name == "prospector_http_requests_total" {
				continue
			}
			if !strings.Contains(exported, name) {
				t.Fatalf("rule %s references unknown metric %s", rule.Alert, name)
			}
		}
	}
}
