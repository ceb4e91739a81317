package canonical

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "dp url with affiliate noise",
			in:   "https://www.amazon.in/Some-Product-Name/dp/B0ABCDE123/ref=sr_1_3?crid=XYZ&tag=affiliate-21",
			want: "https://www.amazon.in/dp/B0ABCDE123",
		},
		{
			name: "gp product url",
			in:   "https://www.amazon.com/gp/product/B0ABCDE123?th=1",
			want: "https://www.amazon.com/dp/B0ABCDE123",
		},
		{
			name: "bare dp url is already canonical",
			in:   "https://www.amazon.in/dp/B0ABCDE123",
			want: "https://www.amazon.in/dp/B0ABCDE123",
		},
		{
			name: "no asin strips query and trailing slash",
			in:   "https://www.amazon.in/deals/?ref=nav_cs_gb",
			want: "https://www.amazon.in/deals",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.in)
			if err != nil {
				t.Fatalf("Canonicalize(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	in := "https://www.amazon.in/Some-Product/dp/B0ABCDE123?tag=x"
	first, err := Canonicalize(in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Canonicalize(first)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("canonical form not stable: %q then %q", first, second)
	}
}

func TestCanonicalizeRejectsRelativeURL(t *testing.T) {
	if _, err := Canonicalize("/dp/B0ABCDE123"); err == nil {
		t.Error("expected error for URL without scheme and host")
	}
}

func TestIsAmazonHost(t *testing.T) {
	if !IsAmazonHost("https://www.amazon.in/dp/B0ABCDE123") {
		t.Error("amazon.in should be accepted")
	}
	if !IsAmazonHost("https://Amazon.com/dp/B0ABCDE123") {
		t.Error("host match should be case-insensitive")
	}
	if IsAmazonHost("https://www.example.com/dp/B0ABCDE123") {
		t.Error("non-amazon host should be rejected")
	}
}
