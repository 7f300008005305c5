package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTopicPrefix is the <org>/<site>/<domain>/Costing root of every channel
const DefaultTopicPrefix = "Henkel/Shanghai/Logistics/Costing"

// Topics names every channel the dashboard subscribes or publishes to
type Topics struct {
	Inbound    string `yaml:"inbound"`
	Approval   string `yaml:"approval"`
	History    string `yaml:"history"`
	Rates      string `yaml:"rates"`
	Invoices   string `yaml:"invoices"`
	Activities string `yaml:"activities"`
	Submit     string `yaml:"submit"`
	Audit      string `yaml:"audit"`
}

// DefaultTopics builds the channel names below prefix
func DefaultTopics(prefix string) Topics {
	return Topics{
		Inbound:    prefix + "/State/Inbound_List",
		Approval:   prefix + "/State/Approval_List",
		History:    prefix + "/State/Cost_History",
		Rates:      prefix + "/State/Rate_Card",
		Invoices:   prefix + "/State/Invoices",
		Activities: prefix + "/State/Warehouse_Activity",
		Submit:     prefix + "/Action/Submit_Req",
		Audit:      prefix + "/Action/Audit_Result",
	}
}

// StateTopics returns the channels subscribed on every connect
func (t Topics) StateTopics() []string {
	return []string{t.Inbound, t.Approval, t.History, t.Rates, t.Invoices, t.Activities}
}

// Validate rejects empty or duplicated channel names
func (t Topics) Validate() error {
	all := append(t.StateTopics(), t.Submit, t.Audit)
	seen := make(map[string]bool, len(all))
	for _, topic := range all {
		if topic == "" {
			return errors.New("topic names must not be empty")
		}
		if seen[topic] {
			return fmt.Errorf("topic %q is configured twice", topic)
		}
		seen[topic] = true
	}
	return nil
}

// LoadTopicsFile overlays the non-empty names found in a YAML file onto base
func LoadTopicsFile(path string, base Topics) (Topics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read topics file: %w", err)
	}

	var override Topics
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("failed to parse topics file %s: %w", path, err)
	}

	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&base.Inbound, override.Inbound)
	merge(&base.Approval, override.Approval)
	merge(&base.History, override.History)
	merge(&base.Rates, override.Rates)
	merge(&base.Invoices, override.Invoices)
	merge(&base.Activities, override.Activities)
	merge(&base.Submit, override.Submit)
	merge(&base.Audit, override.Audit)
	return base, nil
}
