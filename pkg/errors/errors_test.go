package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInvariant, status: http.StatusInternalServerError, publicMsg: "internal invariant violated", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "save split")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(CodeNotFound, "no split")) {
		t.Fatal("expected not-found detection")
	}
	if IsNotFound(New(CodeDependency, "down")) {
		t.Fatal("dependency error must not read as not-found")
	}
	if IsNotFound(stdErrors.New("plain")) {
		t.Fatal("plain error must not read as not-found")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeDependency, "down")) {
		t.Fatal("dependency errors are retryable")
	}
	if IsRetryable(New(CodeValidation, "bad payload")) {
		t.Fatal("validation errors are not retryable")
	}
}
