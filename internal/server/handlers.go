package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// phaseClosed is reported on the complete event of a torn down session.
const phaseClosed verification.Phase = "closed"

// SessionRequest is the optional body of the start and retry endpoints.
type SessionRequest struct {
	// Scope selects the client session whose stored handles are used. A new
	// one is generated when empty.
	Scope string `json:"scope,omitempty" validate:"omitempty,max=128"`
	types.SocialHandles
}

// SessionResponse is a snapshot together with the client session scope.
type SessionResponse struct {
	Scope string `json:"scope"`
	verification.Snapshot
}

// decodeOptional reads a JSON body into v. An empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &ErrValidation{Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: "failed " + fe.Tag() + " check"}
	}
	return &ErrValidation{Message: err.Error()}
}

func (req *SessionRequest) validate() error {
	if err := validator.New().Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

func resumeID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", &ErrValidation{Field: "id", Message: "resume id is required"}
	}
	return id, nil
}

// handleStartSession starts verification for a resume, or returns the
// running session if there already is one.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req SessionRequest
	if err := decodeOptional(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, err)
		return
	}

	sess, created, err := s.sessions.Start(id, req.Scope, req.SocialHandles)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	s.jsonResponse(w, status, SessionResponse{Scope: sess.Scope, Snapshot: sess.Orchestrator.Snapshot()})
}

// handleGetSession returns the current snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SessionResponse{Scope: sess.Scope, Snapshot: sess.Orchestrator.Snapshot()})
}

// handleSessionEvents streams snapshots until the attempt reaches a result
// or an error, the session is closed, or the client goes away.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stream, err := openEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates, cancel := sess.Orchestrator.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		var werr error
		select {
		case snap, ok := <-updates:
			switch {
			case !ok:
				werr = stream.complete(id, phaseClosed)
			case snap.Closed:
				if werr = stream.snapshot(snap); werr == nil {
					werr = stream.complete(id, phaseClosed)
				}
			case snap.Terminal():
				if werr = stream.snapshot(snap); werr == nil {
					werr = stream.complete(id, snap.Phase)
				}
			default:
				if werr = stream.snapshot(snap); werr == nil {
					continue
				}
			}
			if werr != nil {
				s.logger.Printf("event stream write failed resume_id=%s: %v", id, werr)
			}
			return
		case <-heartbeat.C:
			werr = stream.heartbeat()
		case <-r.Context().Done():
			return
		}
		if werr != nil {
			s.logger.Printf("event stream write failed resume_id=%s: %v", id, werr)
			return
		}
	}
}

// handleRetrySession discards the current attempt and starts again with
// corrected handles.
func (s *Server) handleRetrySession(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req SessionRequest
	if err := decodeOptional(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.sessions.Retry(id, req.SocialHandles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, SessionResponse{Scope: sess.Scope, Snapshot: sess.Orchestrator.Snapshot()})
}

// handleDeleteSession tears the session down, clearing its stored handles.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sessions.Close(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInvite forwards an interview invitation to the backend.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	id, err := resumeID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req types.InviteRequest
	if err := decodeOptional(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	result, err := s.backend.SendInvitation(r.Context(), id, req)
	if err != nil {
		s.logger.Printf("invitation failed resume_id=%s: %v", id, err)
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
