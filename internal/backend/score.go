package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/schemas"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// FetchScore retrieves the final score report. Bodies missing any required
// field are rejected as KindMalformed; partial reports are never returned.
func (c *Client) FetchScore(ctx context.Context, id string) (*types.ScoreReport, error) {
	const op = "fetch score"
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, id).Get(pathScore)
	if err != nil {
		return nil, transportError(op, c.endpoint(pathScore, id), err)
	}
	switch {
	case resp.StatusCode() == http.StatusAccepted:
		return nil, ErrStillProcessing
	case resp.StatusCode() == http.StatusBadRequest:
		// "Verification failed: ..." once the job has errored
		e := statusError(op, resp)
		e.Kind = KindUpstream
		return nil, e
	case !resp.IsSuccess():
		return nil, statusError(op, resp)
	}

	body := resp.Body()
	if err := schemas.Validate(schemas.ScoreReport, body); err != nil {
		return nil, &Error{Op: op, URL: c.endpoint(pathScore, id), Kind: KindMalformed, StatusCode: resp.StatusCode(), Cause: err}
	}

	var report types.ScoreReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, &Error{Op: op, URL: c.endpoint(pathScore, id), Kind: KindMalformed, StatusCode: resp.StatusCode(), Cause: err}
	}
	if report.ResumeID == "" {
		report.ResumeID = id
	}
	return &report, nil
}
