package backend

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// AllowedUploadExtensions are the resume formats the backend parses.
var AllowedUploadExtensions = []string{".pdf", ".docx"}

// UploadResume sends a local resume file with optional candidate details.
func (c *Client) UploadResume(ctx context.Context, path, name, email string) (*types.UploadResult, error) {
	const op = "upload resume"

	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, e := range AllowedUploadExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &Error{Op: op, Kind: KindInvalidInput, Detail: "File must be PDF or DOCX"}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Op: op, Kind: KindInvalidInput, Detail: "cannot read resume file", Cause: err}
	}

	form := map[string]string{}
	if name = strings.TrimSpace(name); name != "" {
		form["name"] = name
	}
	if email = strings.TrimSpace(email); email != "" {
		form["email"] = email
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(form).
		Post(pathUpload)
	if err != nil {
		return nil, transportError(op, c.baseURL+pathUpload, err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(op, resp)
	}

	doc := gjson.ParseBytes(resp.Body())
	id := doc.Get("resume_id").String()
	if !gjson.ValidBytes(resp.Body()) || id == "" {
		return nil, &Error{Op: op, URL: c.baseURL + pathUpload, Kind: KindMalformed, StatusCode: resp.StatusCode(), Detail: "response has no resume_id"}
	}
	return &types.UploadResult{
		ResumeID: id,
		Message:  doc.Get("message").String(),
		Status:   types.ResumeStatus(doc.Get("status").String()),
	}, nil
}

// FetchResume retrieves parsed resume data. It returns ErrStillProcessing while
// the backend is extracting, a KindNotFound error for unknown ids and a
// KindUpstream error when the backend gave up on the file.
func (c *Client) FetchResume(ctx context.Context, id string) (*types.ResumeData, error) {
	const op = "fetch resume"
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	resp, err := c.request(ctx, id).Get(pathResume)
	if err != nil {
		return nil, transportError(op, c.endpoint(pathResume, id), err)
	}

	switch {
	case resp.StatusCode() == http.StatusAccepted:
		return nil, ErrStillProcessing
	case !resp.IsSuccess():
		return nil, statusError(op, resp)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, &Error{Op: op, URL: c.endpoint(pathResume, id), Kind: KindMalformed, StatusCode: resp.StatusCode(), Detail: "resume body is not a JSON object"}
	}
	doc := gjson.ParseBytes(body)

	switch types.ResumeStatus(doc.Get("status").String()) {
	case types.ResumeProcessing:
		return nil, ErrStillProcessing
	case types.ResumeError:
		detail := payloadFrom(doc.Get("error")).Text
		if detail == "" {
			detail = "resume processing failed"
		}
		return nil, &Error{Op: op, URL: c.endpoint(pathResume, id), Kind: KindUpstream, StatusCode: resp.StatusCode(), Detail: detail}
	}

	return decodeResume(id, doc), nil
}

// decodeResume reads resume fields leniently: skills may arrive as a string or
// nested lists and projects as strings or objects.
func decodeResume(id string, doc gjson.Result) *types.ResumeData {
	r := &types.ResumeData{
		ResumeID:         doc.Get("resume_id").String(),
		Name:             doc.Get("name").String(),
		Email:            doc.Get("email").String(),
		Phone:            doc.Get("phone").String(),
		Skills:           stringList(doc.Get("skills")),
		Projects:         projectList(doc.Get("projects")),
		Experience:       objectList(doc.Get("experience")),
		Education:        objectList(doc.Get("education")),
		GitHubUsername:   doc.Get("github_username").String(),
		TwitterUsername:  doc.Get("twitter_username").String(),
		LinkedInUsername: doc.Get("linkedin_username").String(),
		Status:           types.ResumeStatus(doc.Get("status").String()),
	}
	if r.ResumeID == "" {
		r.ResumeID = id
	}
	if r.Status == "" {
		r.Status = types.ResumeCompleted
	}
	return r
}

func stringList(v gjson.Result) []string {
	out := []string{}
	var walk func(gjson.Result)
	walk = func(item gjson.Result) {
		if item.IsArray() {
			item.ForEach(func(_, child gjson.Result) bool {
				walk(child)
				return true
			})
			return
		}
		if item.Type == gjson.Null || item.IsObject() {
			return
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	if v.Exists() {
		walk(v)
	}
	return out
}

func projectList(v gjson.Result) []types.Project {
	out := []types.Project{}
	add := func(item gjson.Result) {
		switch {
		case item.IsObject():
			if name := strings.TrimSpace(item.Get("name").String()); name != "" {
				out = append(out, types.Project{Name: name, Description: item.Get("description").String()})
			}
		case item.Type == gjson.String:
			if name := strings.TrimSpace(item.String()); name != "" {
				out = append(out, types.Project{Name: name})
			}
		}
	}
	if v.IsArray() {
		v.ForEach(func(_, item gjson.Result) bool {
			add(item)
			return true
		})
	} else {
		add(v)
	}
	return out
}

func objectList(v gjson.Result) []map[string]any {
	var out []map[string]any
	if !v.IsArray() {
		if m, ok := v.Value().(map[string]any); ok {
			out = append(out, m)
		}
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if m, ok := item.Value().(map[string]any); ok {
			out = append(out, m)
		}
		return true
	})
	return out
}

// payloadFrom normalizes an error field that may be absent, a string or nested JSON.
func payloadFrom(v gjson.Result) types.ErrorPayload {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return types.ErrorPayload{}
	case v.IsObject() || v.IsArray():
		return types.ErrorPayload{Text: compactJSON(v), Structured: true}
	case v.Type == gjson.String:
		return types.ErrorPayload{Text: v.String()}
	default:
		return types.ErrorPayload{Text: v.Raw}
	}
}
