package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := New("TEST_ERROR", "Test error message", http.StatusBadRequest)
	expected := "TEST_ERROR: Test error message"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New("TEST_ERROR", "Test", 400)
	details := map[string]interface{}{"field": "talker_id"}
	detailed := err.WithDetails(details)

	if detailed.Details == nil {
		t.Error("Details should not be nil")
	}
	if err.Details != nil {
		t.Error("WithDetails should not mutate the original error")
	}
}

func TestError_WithError(t *testing.T) {
	baseErr := errors.New("base error")
	err := New("TEST_ERROR", "Test", 400).WithError(baseErr)

	if err.Err != baseErr {
		t.Error("Wrapped error should be set")
	}
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("connection refused")
	wrapped := Wrap(baseErr, ErrCodeNetwork, "Request failed", 0)

	if wrapped.Err != baseErr {
		t.Error("Should wrap the original error")
	}
	if wrapped.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", wrapped.Code, ErrCodeNetwork)
	}
	if !errors.Is(wrapped, baseErr) {
		t.Error("errors.Is should see through the wrapper")
	}
}

func TestIsError(t *testing.T) {
	err := ErrUploadAborted
	if !IsError(err, ErrUploadAborted) {
		t.Error("Should identify error by matching target")
	}

	if IsError(err, ErrUploadBusy) {
		t.Error("Should not match different error")
	}

	standardErr := errors.New("standard error")
	if IsError(standardErr, ErrUploadAborted) {
		t.Error("Should not match non-Error types")
	}
}

func TestIsCode_WrappedChain(t *testing.T) {
	inner := New(ErrCodeCredentialMissing, "SESSDATA cookie is not set", 0)
	outer := fmt.Errorf("listing sessions: %w", inner)

	if !IsCode(outer, ErrCodeCredentialMissing) {
		t.Error("IsCode should match through fmt.Errorf wrapping")
	}
	if IsCode(outer, ErrCodeDecode) {
		t.Error("IsCode should not match a different code")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	err := New(ErrCodeHTTPStatus, "Unexpected status", http.StatusPaymentRequired)
	status := GetHTTPStatus(err)
	if status != http.StatusPaymentRequired {
		t.Errorf("GetHTTPStatus() = %v, want %v", status, http.StatusPaymentRequired)
	}

	standardErr := errors.New("standard error")
	status = GetHTTPStatus(standardErr)
	if status != 0 {
		t.Errorf("Should return 0 for standard errors, got %v", status)
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCodeWbiSign, "Signing failed", 0)
	code := GetCode(err)
	if code != ErrCodeWbiSign {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeWbiSign)
	}

	standardErr := errors.New("standard error")
	code = GetCode(standardErr)
	if code != ErrCodeUnknown {
		t.Errorf("Should return UNKNOWN for standard errors, got %v", code)
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code string
	}{
		{"UploadAborted", ErrUploadAborted, ErrCodeUploadAborted},
		{"UploadBusy", ErrUploadBusy, ErrCodeInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != 0 {
				t.Errorf("HTTPStatus = %v, want 0", tt.err.HTTPStatus)
			}
		})
	}
}
