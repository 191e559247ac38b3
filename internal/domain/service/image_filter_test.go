package service

import "testing"

func TestImageFilterIsImageKey(t *testing.T) {
	filter := NewImageFilter()

	tests := []struct {
		key  string
		want bool
	}{
		{"albums/summer/photo.jpg", true},
		{"albums/summer/photo.jpeg", true},
		{"albums/summer/photo.png", true},
		{"albums/summer/anim.gif", true},
		{"albums/summer/modern.webp", true},
		{"albums/summer/PHOTO.JPG", true},
		{"albums/summer/Mixed.PnG", true},
		{"albums/summer/notes.txt", false},
		{"albums/summer/archive.zip", false},
		{"albums/summer/noextension", false},
		{"albums/summer/", false},
		{"", false},
		{"albums/jpg", false},
		{"albums/trailingdot.", false},
	}

	for _, tt := range tests {
		if got := filter.IsImageKey(tt.key); got != tt.want {
			t.Errorf("IsImageKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestImageFilterExtensionForContentType(t *testing.T) {
	filter := NewImageFilter()

	tests := []struct {
		contentType string
		wantExt     string
		wantOK      bool
	}{
		{"image/jpeg", "jpg", true},
		{"image/png", "png", true},
		{"image/gif", "gif", true},
		{"image/webp", "webp", true},
		{"IMAGE/PNG", "png", true},
		{" image/jpeg ", "jpg", true},
		{"image/svg+xml", "", false},
		{"text/plain", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		ext, ok := filter.ExtensionForContentType(tt.contentType)
		if ext != tt.wantExt || ok != tt.wantOK {
			t.Errorf("ExtensionForContentType(%q) = (%q, %v), want (%q, %v)",
				tt.contentType, ext, ok, tt.wantExt, tt.wantOK)
		}
	}
}
