package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "E001",
			wantMsg: "Hook called outside component context",
			wantCat: CategoryRuntime,
		},
		{
			name:    "validation error",
			code:    "E101",
			wantMsg: "Store value must be an object",
			wantCat: CategoryValidation,
		},
		{
			name:    "cli error",
			code:    "E301",
			wantMsg: "Invalid mutation script",
			wantCat: CategoryCLI,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New("E101")
	if got, want := err.Error(), "E101: Store value must be an object"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E101").Wrapf("got %T", 42)
	if got, want := err.Error(), "E101: Store value must be an object: got int"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestError_IsInvalidArgument(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"E101", true},
		{"E102", true},
		{"E103", true},
		{"E104", true},
		{"E105", true},
		{"E001", false},
		{"E201", false},
		{"E301", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", New(tt.code))
			if got := stderrors.Is(err, ErrInvalidArgument); got != tt.want {
				t.Errorf("errors.Is(%s, ErrInvalidArgument) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestError_IsSameCode(t *testing.T) {
	err := New("E104").Wrapf("missing key %q", "a")
	if !stderrors.Is(err, New("E104")) {
		t.Error("expected errors.Is to match the same code")
	}
	if stderrors.Is(err, New("E105")) {
		t.Error("expected errors.Is not to match a different code")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E201").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E201") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E101")
	if got := FromError(fmt.Errorf("ctx: %w", orig), "E201"); got != orig {
		t.Error("FromError should return the existing *Error")
	}

	got := FromError(stderrors.New("plain"), "E201")
	if got.Code != "E201" || got.Wrapped == nil {
		t.Errorf("FromError = %+v, want E201 wrapping the cause", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("E101").
		Wrapf("got %T", 1).
		WithSuggestion("Pass a map").
		Format()

	for _, want := range []string{
		"ERROR E101: Store value must be an object",
		"Cause: got int",
		"Hint: Pass a map",
		"Learn more: https://vango.dev/docs/livestore/errors/E101",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, stderrors.New("plain failure"))
	if !strings.Contains(b.String(), "ERROR: plain failure") {
		t.Errorf("Fprint plain = %q", b.String())
	}

	b.Reset()
	Fprint(&b, fmt.Errorf("cmd: %w", New("E302")))
	if !strings.Contains(b.String(), "ERROR E302: Document not readable") {
		t.Errorf("Fprint structured = %q", b.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if len(wrapText("", 10)) != 0 {
		t.Error("empty text should produce no lines")
	}
}

func TestRegistryCodes(t *testing.T) {
	for _, code := range GetAllCodes() {
		tpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%s) missing", code)
		}
		if tpl.Message == "" || tpl.Category == "" {
			t.Errorf("template %s incomplete: %+v", code, tpl)
		}
		if !strings.HasSuffix(tpl.DocURL, code) {
			t.Errorf("template %s DocURL = %q", code, tpl.DocURL)
		}
	}
}
