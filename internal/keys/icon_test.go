package keys

import "testing"

func TestIcon(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"category icon", "https://ss3.4sqi.net/img/categories_v2/food/cafe_64.png", "icons/ss3.4sqi.net/img/categories_v2/food/cafe_64.png"},
		{"mixed case and spaces", "https://CDN.example.com/Some Icons/Bar_64.PNG", "icons/cdn.example.com/some-icons/bar_64.png"},
		{"query dropped", "https://cdn.example.com/a.png?size=64", "icons/cdn.example.com/a.png"},
		{"dot segments cleaned", "https://cdn.example.com/x/../a.png", "icons/cdn.example.com/a.png"},
		{"not a url", "cafe icon", "icons/other/cafe-icon"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Icon(tc.input); got != tc.expected {
				t.Fatalf("Icon(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}
