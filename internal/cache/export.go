// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// exportEntry is an Entry with its payload decoded for YAML output.
type exportEntry struct {
	Kind      Kind   `yaml:"kind"`
	ID        string `yaml:"id"`
	Status    string `yaml:"status,omitempty"`
	UpdatedAt string `yaml:"updated_at"`
	Payload   any    `yaml:"payload"`
}

// ExportYAML writes the cached entries of kind (all kinds when empty) to w.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, kind Kind) error {
	entries, err := s.List(ctx, kind)
	if err != nil {
		return err
	}

	out := make([]exportEntry, 0, len(entries))
	for _, e := range entries {
		var payload any
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return fmt.Errorf("decoding cached %s %s: %w", e.Kind, e.ID, err)
		}
		out = append(out, exportEntry{
			Kind:      e.Kind,
			ID:        e.ID,
			Status:    e.Status,
			UpdatedAt: e.UpdatedAt.Format("2006-01-02 15:04:05"),
			Payload:   payload,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
