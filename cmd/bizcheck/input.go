// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bizcheck/internal/view"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// ideaFields are the idea flags, named after the request's JSON keys with
// dashes instead of underscores.
var ideaFields = []struct {
	flag  string
	usage string
}{
	{"title", "short name of the idea"},
	{"description", "one-paragraph description"},
	{"problem", "problem the idea solves"},
	{"target-customer", "who has the problem"},
	{"value-proposition", "why the customer would pay"},
	{"revenue-model", "how the idea makes money"},
	{"differentiation", "what sets it apart from competitors"},
	{"constraints", "budget, time or regulatory constraints"},
	{"industry", "industry the idea belongs to"},
}

func addIdeaFlags(cmd *cobra.Command, withFile bool) {
	if withFile {
		cmd.Flags().String("file", "", "YAML file holding the idea fields")
	}
	for _, f := range ideaFields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// loadIdeaFile reads a CreateIdeaRequest from a YAML file.
func loadIdeaFile(path string) (types.CreateIdeaRequest, error) {
	var req types.CreateIdeaRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading idea file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing idea file %s: %w", path, err)
	}
	return req, nil
}

// ideaForm builds the new-idea form from --file and then the field flags.
// Flags override file values.
func ideaForm(cmd *cobra.Command) (*view.IdeaForm, error) {
	var req types.CreateIdeaRequest
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		r, err := loadIdeaFile(path)
		if err != nil {
			return nil, err
		}
		req = r
	}

	form := view.NewIdeaForm(req)
	for _, f := range ideaFields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.flag)
		if err := form.Set(strings.ReplaceAll(f.flag, "-", "_"), v); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// ideaUpdate collects the changed field flags into a partial update.
func ideaUpdate(cmd *cobra.Command) types.UpdateIdeaRequest {
	var req types.UpdateIdeaRequest
	targets := map[string]**string{
		"title":             &req.Title,
		"description":       &req.Description,
		"problem":           &req.Problem,
		"target-customer":   &req.TargetCustomer,
		"value-proposition": &req.ValueProposition,
		"revenue-model":     &req.RevenueModel,
		"differentiation":   &req.Differentiation,
		"constraints":       &req.Constraints,
		"industry":          &req.Industry,
	}
	for flag, dst := range targets {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			*dst = &v
		}
	}
	return req
}
