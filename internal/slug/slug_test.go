package slug

import "testing"

func TestIsSlug(t *testing.T) {
	for _, ok := range []string{"eating_out", "bills", "a1", "x_2_y"} {
		if !IsSlug(ok) {
			t.Fatalf("IsSlug(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "a", "Eating Out", "café", "UPPER"} {
		if IsSlug(bad) {
			t.Fatalf("IsSlug(%q) = true", bad)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Eating Out", "eating_out"},
		{"  spaced  out  ", "spaced_out"},
		{"already_slug", "already_slug"},
		{"Crème Brûlée!", "cr_me_br_l_e"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
