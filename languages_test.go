package polyglot

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ru", "ru"},
		{"RU", "ru"},
		{" en-US ", "en"},
		{"de_DE", "de"},
		{"nb_NO", "no"},
		{"nb", "no"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeLanguage(tt.input); got != tt.want {
				t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsTargetLanguage(t *testing.T) {
	for _, code := range []string{"ru", "en", "de", "no", "he", "uk", "UK", "nb"} {
		if !IsTargetLanguage(code) {
			t.Errorf("IsTargetLanguage(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"fr", "", "xx"} {
		if IsTargetLanguage(code) {
			t.Errorf("IsTargetLanguage(%q) = true, want false", code)
		}
	}
}

func TestResolveTargets(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		requested []string
		want      []string
		wantErr   error
	}{
		{
			name:      "canonical order",
			source:    "en",
			requested: []string{"uk", "ru", "de"},
			want:      []string{"ru", "de", "uk"},
		},
		{
			name:      "drops source language",
			source:    "en",
			requested: []string{"en", "ru"},
			want:      []string{"ru"},
		},
		{
			name:      "deduplicates",
			source:    "en",
			requested: []string{"ru", "RU", "ru-RU"},
			want:      []string{"ru"},
		},
		{
			name:      "empty",
			source:    "en",
			requested: nil,
			wantErr:   ErrNoTargets,
		},
		{
			name:      "only the source",
			source:    "ru",
			requested: []string{"ru"},
			wantErr:   ErrNoTargets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTargets(tt.source, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveTargets() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTargets() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTargets_Unsupported(t *testing.T) {
	_, err := ResolveTargets("en", []string{"ru", "fr"})
	if err == nil {
		t.Fatal("expected error for unsupported target")
	}
	if errors.Is(err, ErrNoTargets) {
		t.Error("unsupported target should not be reported as empty")
	}
}

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"ru", "Russian"},
		{"de", "German"},
		{"he", "Hebrew"},
		{"uk", "Ukrainian"},
		{"???", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetLanguageName(tt.code); got != tt.want {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"he", "rtl"},
		{"he-IL", "rtl"},
		{"ar", "rtl"},
		{"ru", "ltr"},
		{"en", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetDirection(tt.code); got != tt.want {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, got, tt.want)
			}
			if IsRTL(tt.code) != (tt.want == "rtl") {
				t.Errorf("IsRTL(%q) disagrees with GetDirection", tt.code)
			}
		})
	}
}

func TestLanguageLabel(t *testing.T) {
	if got := LanguageLabel("ru"); got != "RU" {
		t.Errorf("LanguageLabel(ru) = %q, want RU", got)
	}
}
