// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import (
	"context"
	"errors"

	"github.com/pdiddy/bizcheck/internal/apiclient"
	"github.com/pdiddy/bizcheck/pkg/types"
)

// IdeaCreator saves new ideas. *api.IdeaService implements it.
type IdeaCreator interface {
	Create(ctx context.Context, req types.CreateIdeaRequest) (*types.CreateIdeaResponse, error)
}

const msgCreateFailed = "failed to register the idea"

// NewIdea is the controller of the new-idea screen.
type NewIdea struct {
	Form       *IdeaForm
	Error      string
	Submitting bool

	ideas  IdeaCreator
	router *Router
}

// NewNewIdea returns an empty new-idea screen.
func NewNewIdea(ideas IdeaCreator, router *Router) *NewIdea {
	return &NewIdea{Form: NewIdeaForm(types.CreateIdeaRequest{}), ideas: ideas, router: router}
}

// Submit validates the form, saves the idea and routes to its detail
// screen. Validation failures return *ValidationError without a request.
func (n *NewIdea) Submit(ctx context.Context) (string, error) {
	n.Error = ""
	if err := n.Form.Validate(); err != nil {
		n.Error = err.Error()
		return "", err
	}

	n.Submitting = true
	defer func() { n.Submitting = false }()

	created, err := n.ideas.Create(ctx, n.Form.Request())
	if err != nil {
		n.Error = msgCreateFailed
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			n.Error = apiErr.Message
		}
		return "", err
	}
	if created.IdeaID == "" {
		n.Error = msgCreateFailed
		return "", errors.New("server returned no idea id")
	}

	n.router.Navigate(Route{Screen: ScreenIdea, ID: created.IdeaID})
	return created.IdeaID, nil
}
