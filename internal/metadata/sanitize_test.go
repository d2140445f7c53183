package metadata

import "testing"

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"official video", "Song Name (Official Video)", "Song Name"},
		{"official music video", "Song Name [Official Music Video]", "Song Name"},
		{"official audio", "Song Name (Official Audio)", "Song Name"},
		{"lyrics", "Song Name (Lyrics)", "Song Name"},
		{"hq brackets", "Song Name [HQ]", "Song Name"},
		{"4k", "Song Name (4K)", "Song Name"},
		{"live at", "Song Name (Live @ Wembley 2019)", "Song Name"},
		{"case insensitive", "Song Name (OFFICIAL VIDEO)", "Song Name"},
		{"trailing dash", "Artist - Song - ", "Artist - Song"},
		{"trailing pipe", "Song Name | ", "Song Name"},
		{"double spaces", "Song   Name", "Song Name"},
		{"double dots", "Song.. Name", "Song. Name"},
		{"clean stays clean", "Plain Song Name", "Plain Song Name"},
		{"empty", "", ""},
		{"multiple patterns", "Song (Official Video) [HQ]", "Song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.in); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
