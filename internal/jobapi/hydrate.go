package jobapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// LoadForm fetches an existing posting with its requirements and questions
// and returns a form ready for editing. The three reads run concurrently.
func (c *Client) LoadForm(ctx context.Context, postingID string, creds submission.Credentials) (*jobform.Form, error) {
	if postingID == "" {
		return nil, fmt.Errorf("posting id is required")
	}
	base := "/jobs/" + url.PathEscape(postingID)

	var (
		posting   jobform.JobPosting
		reqs      []requirementWire
		questions []questionWire
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, base, creds.Token, &posting)
	})
	g.Go(func() error {
		return c.getJSON(gctx, base+"/requirements", creds.Token, &reqs)
	})
	g.Go(func() error {
		return c.getJSON(gctx, base+"/questions", creds.Token, &questions)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reqEntries := make([]jobform.Entry[jobform.RequirementItem], 0, len(reqs))
	for _, r := range reqs {
		reqEntries = append(reqEntries, jobform.Entry[jobform.RequirementItem]{
			ID: r.ID,
			Value: jobform.RequirementItem{
				Requirement: r.Requirement,
				Status:      r.Status,
				Label:       r.Label,
			},
		})
	}

	questionEntries := make([]jobform.Entry[jobform.CustomQuestion], 0, len(questions))
	for _, q := range questions {
		questionEntries = append(questionEntries, jobform.Entry[jobform.CustomQuestion]{
			ID:    q.ID,
			Value: jobform.CustomQuestion{ID: q.ClientID, Question: q.Question},
		})
	}

	return jobform.FromExisting(postingID, posting, reqEntries, questionEntries), nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
