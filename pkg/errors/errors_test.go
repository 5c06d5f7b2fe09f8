package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeInvalidSource, "vertex %d out of range", 7)
	if err.Code != CodeInvalidSource {
		t.Errorf("Code = %s, want %s", err.Code, CodeInvalidSource)
	}
	if got := err.Error(); got != "INVALID_SOURCE: vertex 7 out of range" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(CodeIO, io.ErrUnexpectedEOF, "read nodes")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped error should match its cause")
	}
	if got := err.Error(); got != "IO: read nodes: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsWalksNestedCodes(t *testing.T) {
	inner := New(CodeNotFound, "node 42")
	outer := Wrap(CodeInvalidInput, inner, "resolve source")
	wrapped := fmt.Errorf("pipeline: %w", outer)

	tests := []struct {
		code Code
		want bool
	}{
		{CodeInvalidInput, true},
		{CodeNotFound, true},
		{CodeRender, false},
	}
	for _, tt := range tests {
		if got := Is(wrapped, tt.code); got != tt.want {
			t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if GetCode(wrapped) != CodeInvalidInput {
		t.Errorf("GetCode = %s, want %s", GetCode(wrapped), CodeInvalidInput)
	}
}

func TestPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	if Is(plain, CodeIO) {
		t.Error("plain error should not match any code")
	}
	if GetCode(plain) != "" {
		t.Errorf("GetCode = %q, want empty", GetCode(plain))
	}
	if UserMessage(plain) != "boom" {
		t.Errorf("UserMessage = %q", UserMessage(plain))
	}
	if got := UserMessage(New(CodeRender, "canvas closed")); got != "canvas closed" {
		t.Errorf("UserMessage = %q", got)
	}
}
