package storage

import (
	"strings"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"avatars", "avatars"},
		{"  Avatars  ", "avatars"},
		{"UPPER_case-99", "upper_case-99"},
		{"../../etc/passwd", "etcpasswd"},
		{"with space", "withspace"},
		{"", ""},
		{"///", ""},
	}

	for _, tt := range tests {
		if got := sanitizePathSegment(tt.input); got != tt.expected {
			t.Errorf("sanitizePathSegment(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"png", "png"},
		{".png", "png"},
		{"  .JPG  ", "jpg"},
		{"", "bin"},
		{"..", "bin"},
	}

	for _, tt := range tests {
		if got := normalizeExtension(tt.input); got != tt.expected {
			t.Errorf("normalizeExtension(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildObjectPath(t *testing.T) {
	key := buildObjectPath("avatars", "My Avatar", "PNG")

	if !strings.HasPrefix(key, "avatars/") {
		t.Errorf("expected key under avatars/, got %q", key)
	}
	if !strings.HasSuffix(key, "/my-avatar.png") {
		t.Errorf("expected sanitized filename, got %q", key)
	}
	if strings.Contains(key, "..") {
		t.Errorf("key must not contain traversal segments: %q", key)
	}

	// 空 category 回落到 misc，空文件名生成时间戳
	fallback := buildObjectPath("", "", "")
	if !strings.HasPrefix(fallback, "misc/") {
		t.Errorf("expected key under misc/, got %q", fallback)
	}
	if !strings.HasSuffix(fallback, ".bin") {
		t.Errorf("expected .bin extension, got %q", fallback)
	}
}

func TestDetectContentType(t *testing.T) {
	if got := detectContentType("png"); got != "image/png" {
		t.Errorf("detectContentType(png) = %q, want image/png", got)
	}
	if got := detectContentType("definitely-unknown"); got != "application/octet-stream" {
		t.Errorf("detectContentType(unknown) = %q, want application/octet-stream", got)
	}
}

func TestJoinPrefix(t *testing.T) {
	tests := []struct {
		prefix   string
		key      string
		expected string
	}{
		{"", "a/b.png", "a/b.png"},
		{"uploads", "a/b.png", "uploads/a/b.png"},
		{"/uploads/", "/a/b.png", "uploads/a/b.png"},
	}

	for _, tt := range tests {
		if got := joinPrefix(tt.prefix, tt.key); got != tt.expected {
			t.Errorf("joinPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.expected)
		}
	}
}
