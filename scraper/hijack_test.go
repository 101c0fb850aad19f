package scraper

import "testing"

func TestIsAdDomain(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"cdn.taboola.com", true},
		{"TABOOLA.COM", true},
		{"example.com", false},
		{"nottaboola.com", false},
		{"shop.example", false},
	}
	for _, tc := range cases {
		if got := isAdDomain(tc.host); got != tc.want {
			t.Errorf("isAdDomain(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}
