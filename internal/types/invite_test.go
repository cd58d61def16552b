package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInviteRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request InviteRequest
		wantErr bool
	}{
		{
			name:    "message only",
			request: InviteRequest{Message: "We'd like to talk."},
		},
		{
			name: "full invitation",
			request: InviteRequest{
				Message:           "We'd like to talk.",
				InterviewDate:     "2026-11-02 10:00",
				InterviewLocation: "Video call",
			},
		},
		{
			name:    "defaults to backend message",
			request: InviteRequest{InterviewDate: "tomorrow"},
		},
		{
			name:    "message too long",
			request: InviteRequest{Message: strings.Repeat("a", 5001)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	assert.False(t, JobNotStarted.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
}

func TestErrorPayload_IsAbsent(t *testing.T) {
	assert.True(t, ErrorPayload{}.IsAbsent())
	assert.False(t, ErrorPayload{Text: "boom"}.IsAbsent())
	assert.False(t, ErrorPayload{Structured: true}.IsAbsent())
}
