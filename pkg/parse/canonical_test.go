package parse

import (
	"net/url"
	"testing"
)

func TestNormalizeURL_NilInput(t *testing.T) {
	result := NormalizeURL(nil)
	if result != "" {
		t.Errorf("NormalizeURL(nil) = %q, want empty string", result)
	}
}

func TestNormalizeURL_FragmentAndQueryStripped(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "FragmentRemoved",
			input:    "http://example.com/page#section",
			expected: "http://example.com/page",
		},
		{
			name:     "QueryRemoved",
			input:    "http://example.com/page?a=1&b=2",
			expected: "http://example.com/page",
		},
		{
			name:     "FragmentAndQueryRemoved",
			input:    "http://example.com/page?a=1#top",
			expected: "http://example.com/page",
		},
		{
			name:     "FragmentOnlyDifference",
			input:    "http://example.com/page",
			expected: "http://example.com/page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, _ := url.Parse(tt.input)
			result := NormalizeURL(parsed)
			if result != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// URLs differing only by fragment must normalize identically.
func TestNormalize_FragmentInvariant(t *testing.T) {
	variants := []string{
		"http://example.com/gallery",
		"http://example.com/gallery#top",
		"http://example.com/gallery#footer",
	}
	want := Normalize(variants[0])
	for _, v := range variants {
		if got := Normalize(v); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestNormalize_SchemeHostAndPorts(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"UppercaseSchemeHost", "HTTP://Example.COM/Path", "http://example.com/Path"},
		{"DefaultHTTPPortRemoved", "http://example.com:80/x", "http://example.com/x"},
		{"DefaultHTTPSPortRemoved", "https://example.com:443/x", "https://example.com/x"},
		{"NonDefaultPortKept", "http://example.com:8080/x", "http://example.com:8080/x"},
		{"EmptyPathBecomesRoot", "http://example.com", "http://example.com/"},
		{"TrailingSlashTrimmed", "http://example.com/a/", "http://example.com/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_MalformedPassthrough(t *testing.T) {
	// Inputs url.Parse rejects must come back unchanged, never panic.
	malformed := []string{
		"http://exa mple.com/%zz",
		"://missing-scheme",
		"http://[::1:bad",
	}
	for _, input := range malformed {
		got := Normalize(input)
		if _, err := url.Parse(input); err != nil && got != input {
			t.Errorf("Normalize(%q) = %q, want passthrough", input, got)
		}
	}
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("http://example.com/dir/page.html")
	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"RelativePath", "img/a.jpg", "http://example.com/dir/img/a.jpg"},
		{"RootRelative", "/img/a.jpg", "http://example.com/img/a.jpg"},
		{"ProtocolRelative", "//cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"Absolute", "https://other.com/b.png", "https://other.com/b.png"},
		{"ParentDir", "../a.gif", "http://example.com/a.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(base, tt.ref)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.ref, err)
			}
			if resolved.String() != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ref, resolved.String(), tt.expected)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		baseHost string
		expected bool
	}{
		{"ExactMatch", "http://example.com/page", "example.com", true},
		{"DifferentHost", "http://other.com/page", "example.com", false},
		{"SubdomainNotMatched", "http://www.example.com/page", "example.com", false},
		{"PortIsPartOfAuthority", "http://example.com:8080/page", "example.com", false},
		{"PortMatched", "http://example.com:8080/page", "example.com:8080", true},
		{"RelativeURLNoHost", "/just/a/path", "example.com", false},
		{"EmptyInput", "", "example.com", false},
		{"MalformedNeverPanics", "http://exa mple.com/%zz", "example.com", false},
		{"ControlCharacters", "http://\x7f.com/", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameHost(tt.rawURL, tt.baseHost); got != tt.expected {
				t.Errorf("SameHost(%q, %q) = %v, want %v", tt.rawURL, tt.baseHost, got, tt.expected)
			}
		})
	}
}

func TestStripQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://h/a.jpg?x=1", "http://h/a.jpg"},
		{"http://h/a.jpg#frag", "http://h/a.jpg"},
		{"http://h/a.jpg?x=1#frag", "http://h/a.jpg"},
		{"http://h/a.jpg", "http://h/a.jpg"},
	}
	for _, tt := range tests {
		if got := StripQuery(tt.input); got != tt.expected {
			t.Errorf("StripQuery(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
