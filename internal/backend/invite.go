package backend

import (
	"context"
	"encoding/json"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// SendInvitation asks the backend to email the candidate. Validation failures
// come back as one KindInvalidInput error with the messages joined.
func (c *Client) SendInvitation(ctx context.Context, id string, req types.InviteRequest) (*types.InviteResult, error) {
	const op = "send invitation"
	if err := checkID(op, id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, &Error{Op: op, Kind: KindInvalidInput, Detail: err.Error(), Cause: err}
	}

	resp, err := c.request(ctx, id).SetBody(req).Post(pathInvite)
	if err != nil {
		return nil, transportError(op, c.endpoint(pathInvite, id), err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(op, resp)
	}

	var result types.InviteResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &Error{Op: op, URL: c.endpoint(pathInvite, id), Kind: KindMalformed, StatusCode: resp.StatusCode(), Cause: err}
	}
	return &result, nil
}
