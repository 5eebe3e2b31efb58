package errors

import (
	"bytes"
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
			code:    "E006",
			wantMsg: "Effect cascade depth exceeded",
			wantCat: CategoryRuntime,
		},
		{
			name:    "resource error",
			code:    "E007",
			wantMsg: "Resource fetch failed",
			wantCat: CategoryResource,
		},
		{
			name:    "config error",
			code:    "E141",
			wantMsg: "Config file not found",
			wantCat: CategoryConfig,
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

func TestNewf(t *testing.T) {
	err := Newf(CategoryRuntime, "store %q not found", "count")
	if err.Message != `store "count" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
}

func TestMsigError_Error(t *testing.T) {
	err := New("E006")
	if got, want := err.Error(), "E006: Effect cascade depth exceeded"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New("E007").Wrap(fmt.Errorf("boom"))
	if got, want := wrapped.Error(), "E007: Resource fetch failed: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &MsigError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestMsigError_IsByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New("E007").Wrap(stderrors.New("inner")))

	if !stderrors.Is(err, New("E007")) {
		t.Error("errors.Is should match on code through wrapping")
	}
	if stderrors.Is(err, New("E006")) {
		t.Error("errors.Is should not match a different code")
	}
	if stderrors.Is(err, &MsigError{Message: "Resource fetch failed"}) {
		t.Error("code-less target should never match")
	}
}

func TestMsigError_Wrap(t *testing.T) {
	inner := stderrors.New("connection reset")
	outer := New("E008").Wrap(inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
	if !stderrors.Is(outer, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E007") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	me := New("E006")
	if FromError(fmt.Errorf("ctx: %w", me), "E007") != me {
		t.Error("FromError should return an existing MsigError as-is")
	}

	stdErr := stderrors.New("test error")
	result := FromError(stdErr, "E007")
	if result.Wrapped != stdErr || result.Code != "E007" {
		t.Errorf("FromError = %+v", result)
	}
}

func TestCode(t *testing.T) {
	if got := Code(fmt.Errorf("x: %w", New("E200"))); got != "E200" {
		t.Errorf("Code = %q, want E200", got)
	}
	if got := Code(stderrors.New("plain")); got != "" {
		t.Errorf("Code = %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E007").
		WithDetail("GET /users/42 returned 503").
		WithSuggestion("Retry with resource.WithRetry").
		Wrap(stderrors.New("service unavailable"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E007: Resource fetch failed",
		"GET /users/42 returned 503",
		"Cause: service unavailable",
		"Hint: Retry with resource.WithRetry",
		"Learn more: https://msig.dev/docs/errors/E007",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "E007: Resource fetch failed (GET /users/42 returned 503)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint plain = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, New("E141"))
	if !strings.Contains(buf.String(), "E141: Config file not found") {
		t.Errorf("Fprint coded = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}

func TestRegistry(t *testing.T) {
	for _, code := range GetAllCodes() {
		tpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) missing", code)
		}
		if tpl.Message == "" || tpl.DocURL == "" {
			t.Errorf("template %s incomplete: %+v", code, tpl)
		}
	}

	Register("E998", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	if New("E998").Message != "custom" {
		t.Error("Register should add a template")
	}
}
