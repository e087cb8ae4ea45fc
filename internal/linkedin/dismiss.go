package linkedin

import (
	"context"
	"net/http"
)

// dismissBody is the relevance-feedback payload shared by dismiss and undo.
type dismissBody struct {
	FeedbackUrn string `json:"jobPostingRelevanceFeedbackUrn"`
	Channel     string `json:"channel"`
}

// Dismiss records negative relevance feedback for a posting, hiding it from
// future search results on the platform side. The feedback urn comes from
// the job card; when the card carried none a fallback urn is derived from
// the job id.
func (c *Client) Dismiss(ctx context.Context, jobID, feedbackURN string) error {
	if feedbackURN == "" {
		feedbackURN = "urn:li:fsd_jobPostingRelevanceFeedback:urn:li:fsd_jobPosting:" + jobID
	}
	body := dismissBody{FeedbackUrn: feedbackURN, Channel: "JOB_SEARCH"}
	return c.do(ctx, c.jobLimiter, http.MethodPost, dismissURL, body, nil)
}

// UndoDismiss reverses a previous dismissal on the platform side.
func (c *Client) UndoDismiss(ctx context.Context, jobID string) error {
	body := dismissBody{
		FeedbackUrn: "urn:li:fsd_jobPostingRelevanceFeedback:urn:li:fsd_jobPosting:" + jobID,
		Channel:     "JOB_SEARCH",
	}
	return c.do(ctx, c.jobLimiter, http.MethodPost, undoDismissURL, body, nil)
}
