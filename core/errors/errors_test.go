package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "run.hkx", Err: underlying},
			wantMsg: "failed to read run.hkx: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: underlying},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); got != underlying {
				t.Errorf("Unwrap() = %v, want %v", got, underlying)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with path",
			err:      &ParseError{Format: "XML tagfile", Path: "run.xml", Message: "missing hkpackfile root"},
			wantMsg:  "failed to parse XML tagfile at run.xml: missing hkpackfile root",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without path",
			err:      &ParseError{Format: "binary container", Message: "truncated header"},
			wantMsg:  "failed to parse binary container: truncated header",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	err := &UnsupportedError{Feature: `output format "pdf"`, Reason: "expected amd64, win32, or xml"}
	want := `unsupported output format "pdf": expected amd64, win32, or xml`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
}

func TestEncodingError(t *testing.T) {
	err := &EncodingError{Path: "run.hkx", Reason: "serialized XML is not valid UTF-8"}
	want := "invalid text encoding for run.hkx: serialized XML is not valid UTF-8"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := errors.New("boom")
	wrapped := Wrap(base, "loading asset")
	if wrapped.Error() != "loading asset: boom" {
		t.Errorf("Wrap() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := errors.New("boom")
	wrapped := Wrapf(base, "file %d of %d", 2, 3)
	if wrapped.Error() != "file 2 of 3: boom" {
		t.Errorf("Wrapf() = %q", wrapped.Error())
	}
}

func TestIsAndAsHelpers(t *testing.T) {
	parseErr := NewParse("XML tagfile", "a.xml", "bad root")
	wrapped := Wrap(parseErr, "dump")

	if !Is(wrapped, ErrInvalidInput) {
		t.Error("Is() should see through wrapping")
	}

	var target *ParseError
	if !As(wrapped, &target) {
		t.Fatal("As() should find the ParseError")
	}
	if target.Path != "a.xml" {
		t.Errorf("Path = %q", target.Path)
	}
}
