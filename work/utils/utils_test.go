package utils

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "BBC One", "BBC One"},
		{"strips punctuation", "Sky Sports F1 (HD)!", "Sky Sports F1 HD"},
		{"keeps separators", "News / Weather", "News / Weather"},
		{"trims whitespace", "  ESPN  ", "ESPN"},
		{"unicode dropped", "Canal+ Décalé", "Canal Dcal"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "BBC", "bbc"},
		{"spaces collapse", "Sky Sports Main Event", "sky_sports_main_event"},
		{"runs collapse once", "A -- B", "a_b"},
		{"trims separators", "  HD+ ", "hd"},
		{"digits kept", "Channel 4", "channel_4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative file", "https://o.example/path/master.m3u8", "seg1.ts", "https://o.example/path/seg1.ts"},
		{"absolute passthrough", "https://o.example/path/master.m3u8", "https://cdn.example/x.ts", "https://cdn.example/x.ts"},
		{"root relative", "https://o.example/a/b.m3u8", "/keys/k1", "https://o.example/keys/k1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveReference(tt.base, tt.ref); got != tt.want {
				t.Errorf("ResolveReference(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
		})
	}
}

func TestObfuscateURL(t *testing.T) {
	got := ObfuscateURL("https://secret.example/path/stream.m3u8?token=abc")
	want := "https://secret.example/***?***"
	if got != want {
		t.Errorf("ObfuscateURL = %q, want %q", got, want)
	}

	if got := ObfuscateURL(""); got != "" {
		t.Errorf("ObfuscateURL(\"\") = %q, want empty", got)
	}
}
