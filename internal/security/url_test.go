package security

import "testing"

func TestValidateLinkURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"https://example.com", false},
		{"http://example.com/page?x=1", false},
		{"javascript:alert(1)", true},
		{"file:///etc/passwd", true},
		{"ftp://example.com", true},
		{"data:text/html,<script>", true},
		{"https://", true},
		{"://broken", true},
	}
	for _, tt := range tests {
		err := ValidateLinkURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLinkURL(%q) = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateImageSource(t *testing.T) {
	tests := []struct {
		src     string
		wantErr bool
	}{
		{"", false},
		{"https://example.com/a.png", false},
		{"data:image/jpeg;base64,/9j/4AAQ", false},
		{"data:image/png;base64,iVBOR", false},
		{"data:text/html;base64,PHNjcmlwdD4=", true},
		{"javascript:alert(1)", true},
	}
	for _, tt := range tests {
		err := ValidateImageSource(tt.src)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateImageSource(%q) = %v, wantErr %v", tt.src, err, tt.wantErr)
		}
	}
}
