package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewFollowsCode(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		status    int
		retryable bool
	}{
		{ErrCodeBusy, http.StatusServiceUnavailable, true},
		{ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{ErrCodeNotFound, http.StatusNotFound, false},
		{ErrCodeInvalidInput, http.StatusBadRequest, false},
		{ErrCodeDecodeFailed, http.StatusInternalServerError, false},
		{ErrCodeStageCrashed, http.StatusInternalServerError, false},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg")
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v", tc.retryable)
			}
			if err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, err.HTTPStatus)
			}
		})
	}
}

func TestBusy(t *testing.T) {
	err := Busy(6)
	if err.Code != ErrCodeBusy {
		t.Errorf("expected BUSY, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
	if !err.Retryable {
		t.Error("Busy should be retryable")
	}
	if err.Details["outstanding"] != 6 {
		t.Errorf("expected outstanding=6, got %v", err.Details["outstanding"])
	}
}

func TestNotFound_EmptyID(t *testing.T) {
	err := NotFound("job", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	err = NotFound("job", "abc")
	if err.Details["id"] != "abc" {
		t.Errorf("expected id=abc, got %v", err.Details["id"])
	}
}

func TestTooLarge(t *testing.T) {
	err := TooLarge(20000, 15000)
	if err.HTTPStatus != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Message, "15000") {
		t.Errorf("expected limit in message, got %q", err.Message)
	}
}

func TestDecodeFailed_Unwrap(t *testing.T) {
	cause := fmt.Errorf("line 3: expected 10 columns")
	err := DecodeFailed(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Error(), "cause:") {
		t.Errorf("expected cause in Error(), got %q", err.Error())
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("annotate: %w", Busy(5))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeBusy {
		t.Errorf("expected BUSY, got %s", appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeBusy) {
		t.Error("HasCode should match BUSY")
	}
	if HasCode(stderrors.New("plain"), ErrCodeBusy) {
		t.Error("HasCode should not match a plain error")
	}
}

func TestToResponse(t *testing.T) {
	resp := StageCrashed("tagger", stderrors.New("exit 2")).ToResponse("req-1")
	if resp.Error.RequestID != "req-1" {
		t.Errorf("expected request id echoed, got %q", resp.Error.RequestID)
	}
	if resp.Error.Code != ErrCodeStageCrashed {
		t.Errorf("expected STAGE_CRASHED, got %s", resp.Error.Code)
	}
	if resp.Error.Details["stage"] != "tagger" {
		t.Errorf("expected stage=tagger, got %v", resp.Error.Details["stage"])
	}
}

func TestFrom(t *testing.T) {
	busy := Busy(3)
	if got := From(fmt.Errorf("submit: %w", busy)); got != busy {
		t.Errorf("expected wrapped AppError returned, got %v", got)
	}
	if got := From(stderrors.New("plain")); got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR for plain errors, got %s", got.Code)
	}
}

func TestWithDetail(t *testing.T) {
	err := Internal(nil).WithDetail("job_id", "j1").WithCause(stderrors.New("boom"))
	if err.Details["job_id"] != "j1" {
		t.Errorf("expected job_id detail, got %v", err.Details)
	}
	if err.Cause == nil {
		t.Error("expected cause to be set")
	}
}
