package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAs(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("ctx: %w", New(http.StatusBadGateway, "upstream", base))

	got := As(wrapped)
	if got.Status != http.StatusBadGateway || got.Code != "upstream" {
		t.Fatalf("As=%+v", got)
	}
	if !errors.Is(got, base) {
		t.Fatalf("underlying error should stay reachable")
	}

	plain := As(base)
	if plain.Status != http.StatusInternalServerError || plain.Code != "internal_error" {
		t.Fatalf("plain=%+v", plain)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want string
	}{
		{"wrapped", New(400, "bad", errors.New("x")), "x"},
		{"code only", New(400, "bad", nil), "bad"},
		{"status only", &Error{Status: 418}, "api error (418)"},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error()=%q, want %q", got, tc.want)
			}
		})
	}
}
