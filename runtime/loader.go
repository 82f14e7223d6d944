package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFlows reads every flow definition in a directory. Flows are authored
// as YAML or JSON files keyed by their id.
func LoadFlows(dir string) (map[string]*Flow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading flows directory: %w", err)
	}

	flows := make(map[string]*Flow)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		flow, err := ReadFlow(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if flow.ID == "" {
			return nil, fmt.Errorf("flow file %s has no id", entry.Name())
		}
		flows[flow.ID] = flow
	}
	return flows, nil
}

// ReadFlow parses a single flow definition file.
func ReadFlow(path string) (*Flow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading flow file: %w", err)
	}

	var flow Flow
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(raw, &flow); err != nil {
			return nil, fmt.Errorf("error unmarshalling JSON flow %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &flow); err != nil {
			return nil, fmt.Errorf("error unmarshalling YAML flow %s: %w", path, err)
		}
	}
	return &flow, nil
}
