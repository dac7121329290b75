// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"fmt"
	"strings"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// ValidationError lists required form fields that are empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// IdeaForm is the new-idea form. Field names match the request's JSON keys.
type IdeaForm struct {
	values types.CreateIdeaRequest
}

// NewIdeaForm returns a form prefilled from req.
func NewIdeaForm(req types.CreateIdeaRequest) *IdeaForm {
	return &IdeaForm{values: req}
}

// formField binds a field name to its value in the request.
type formField struct {
	name     string
	required bool
	ptr      func(r *types.CreateIdeaRequest) *string
}

var formFields = []formField{
	{"title", true, func(r *types.CreateIdeaRequest) *string { return &r.Title }},
	{"description", true, func(r *types.CreateIdeaRequest) *string { return &r.Description }},
	{"problem", true, func(r *types.CreateIdeaRequest) *string { return &r.Problem }},
	{"target_customer", true, func(r *types.CreateIdeaRequest) *string { return &r.TargetCustomer }},
	{"value_proposition", true, func(r *types.CreateIdeaRequest) *string { return &r.ValueProposition }},
	{"revenue_model", true, func(r *types.CreateIdeaRequest) *string { return &r.RevenueModel }},
	{"differentiation", true, func(r *types.CreateIdeaRequest) *string { return &r.Differentiation }},
	{"constraints", false, func(r *types.CreateIdeaRequest) *string { return &r.Constraints }},
	{"industry", false, func(r *types.CreateIdeaRequest) *string { return &r.Industry }},
}

// Set assigns value to the named field.
func (f *IdeaForm) Set(field, value string) error {
	for _, ff := range formFields {
		if ff.name == field {
			*ff.ptr(&f.values) = value
			return nil
		}
	}
	return fmt.Errorf("unknown form field %q", field)
}

// Validate returns a *ValidationError naming every empty required field.
func (f *IdeaForm) Validate() error {
	var missing []string
	for _, ff := range formFields {
		if ff.required && strings.TrimSpace(*ff.ptr(&f.values)) == "" {
			missing = append(missing, ff.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Request returns the form values with surrounding whitespace trimmed.
func (f *IdeaForm) Request() types.CreateIdeaRequest {
	req := f.values
	for _, ff := range formFields {
		p := ff.ptr(&req)
		*p = strings.TrimSpace(*p)
	}
	return req
}

// Reset empties the form.
func (f *IdeaForm) Reset() {
	f.values = types.CreateIdeaRequest{}
}
