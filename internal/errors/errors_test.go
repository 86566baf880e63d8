package errors

import (
	stdErrors "errors"
	"log/slog"
	"testing"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeSubmissionFailure, cause, "发送交易失败", WithMetadata("index", "1"))

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to expose its cause")
	}
	if !stdErrors.Is(err, New(CodeSubmissionFailure, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stdErrors.Is(err, New(CodeUserRejected, "")) {
		t.Fatal("expected different codes not to match")
	}
	if CodeOf(err) != CodeSubmissionFailure {
		t.Fatalf("unexpected code %s", CodeOf(err))
	}
	if got := err.Metadata()["index"]; got != "1" {
		t.Fatalf("unexpected metadata %q", got)
	}
}

func TestDefaultsForUnknownCode(t *testing.T) {
	err := New("SOMETHING_ELSE", "")
	if err.Message() != "unknown error" {
		t.Fatalf("unexpected default message %q", err.Message())
	}
	if LogLevel(err) != slog.LevelError {
		t.Fatalf("unexpected log level %v", LogLevel(err))
	}
	if CodeOf(stdErrors.New("plain")) != CodeUnknown {
		t.Fatal("expected plain errors to map to UNKNOWN")
	}
}

func TestRecoverableCategories(t *testing.T) {
	if !Recoverable(New(CodeStorageFailure, "")) {
		t.Fatal("storage failures are handled locally")
	}
	if Recoverable(New(CodeUserRejected, "")) {
		t.Fatal("user rejections must reach the caller")
	}
	if Recoverable(nil) {
		t.Fatal("nil is not recoverable")
	}
}
