package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/schemas"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// incompleteMarker is the backend's wording for resumes without skills or projects.
const incompleteMarker = "resume data incomplete"

// LaunchVerification starts a verification job. A nil error means the job was
// accepted. ErrStillProcessing means the resume is not parsed yet; a
// KindInvalidInput error carries the backend's reason verbatim in Detail.
func (c *Client) LaunchVerification(ctx context.Context, id string, handles types.SocialHandles) error {
	const op = "launch verification"
	if err := checkID(op, id); err != nil {
		return err
	}

	resp, err := c.request(ctx, id).
		SetBody(handles.Normalized()).
		Post(pathVerification)
	if err != nil {
		return transportError(op, c.endpoint(pathVerification, id), err)
	}
	if resp.IsSuccess() {
		return nil
	}

	e := statusError(op, resp)
	if e.Kind == KindInvalidInput {
		lower := strings.ToLower(e.Detail)
		if !strings.Contains(lower, incompleteMarker) && strings.Contains(lower, "processing") {
			return ErrStillProcessing
		}
	}
	return e
}

// PollVerification reads the current job state. A failed job is a successful
// poll: its status is types.JobFailed and Error holds the raw payload.
func (c *Client) PollVerification(ctx context.Context, id string) (*types.VerificationStatus, error) {
	const op = "poll verification"
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, id).Get(pathVerification)
	if err != nil {
		return nil, transportError(op, c.endpoint(pathVerification, id), err)
	}
	if !resp.IsSuccess() {
		e := statusError(op, resp)
		if e.Kind != KindNotFound {
			e.Kind = KindStatus
		}
		return nil, e
	}

	body := resp.Body()
	if err := schemas.Validate(schemas.VerificationStatus, body); err != nil {
		return nil, &Error{Op: op, URL: c.endpoint(pathVerification, id), Kind: KindMalformed, StatusCode: resp.StatusCode(), Cause: err}
	}

	doc := gjson.ParseBytes(body)
	status := &types.VerificationStatus{
		ResumeID: doc.Get("resume_id").String(),
		Status:   types.JobState(doc.Get("status").String()),
		Message:  doc.Get("message").String(),
		Error:    payloadFrom(doc.Get("error")),
	}
	if status.ResumeID == "" {
		status.ResumeID = id
	}
	if resp.StatusCode() == http.StatusAccepted && status.Status == "" {
		status.Status = types.JobProcessing
	}
	return status, nil
}
