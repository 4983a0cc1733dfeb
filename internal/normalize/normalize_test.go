package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	norm := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "direct link passes through",
			in:   "http://news.example/x",
			want: "http://news.example/x",
		},
		{
			name: "facebook redirect unwrapped",
			in:   "http://www.facebook.com/l.php?u=http%3A%2F%2Fnews.example%2Fx",
			want: "http://news.example/x",
		},
		{
			name: "l subdomain redirect unwrapped",
			in:   "https://l.facebook.com/l.php?u=http%3A%2F%2Fnews.example%2Fx&h=AT0abc",
			want: "http://news.example/x",
		},
		{
			name: "tracking params stripped",
			in:   "http://news.example/x?utm_source=fb&utm_medium=social",
			want: "http://news.example/x",
		},
		{
			name: "fbclid stripped, real params kept",
			in:   "http://news.example/x?id=42&fbclid=IwAR123",
			want: "http://news.example/x?id=42",
		},
		{
			name: "wrapped link with tracking target",
			in:   "http://www.facebook.com/l.php?u=http%3A%2F%2Fnews.example%2Fx%3Futm_source%3Dfb",
			want: "http://news.example/x",
		},
		{
			name: "real params re-encoded canonically",
			in:   "http://news.example/x?z=1&a=2",
			want: "http://news.example/x?a=2&z=1",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
		{
			name: "unparseable link passes through",
			in:   "http://news.example/%zz?utm_source=fb",
			want: "http://news.example/%zz?utm_source=fb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm(tt.in))
		})
	}
}

func TestDefault_WrappedAndDirectConverge(t *testing.T) {
	norm := Default()

	wrapped := norm("http://www.facebook.com/l.php?u=http%3A%2F%2Fnews.example%2Fx")
	direct := norm("http://news.example/x")

	assert.Equal(t, direct, wrapped)
}

func TestDefault_TrackedAndUntrackedConverge(t *testing.T) {
	norm := Default()

	// The same article must normalize identically whether a tracking
	// parameter was appended or not, independent of parameter order.
	assert.Equal(t,
		norm("http://news.example/x?z=1&a=2"),
		norm("http://news.example/x?z=1&a=2&fbclid=IwAR123"))
}

func TestUnwrapFacebookRedirect_NonRedirect(t *testing.T) {
	assert.Equal(t,
		"http://www.facebook.com/some/post",
		UnwrapFacebookRedirect("http://www.facebook.com/some/post"))
}

func TestNew_CustomRule(t *testing.T) {
	upper := func(link string) string {
		if link == "a" {
			return "b"
		}
		return link
	}
	chain := func(link string) string {
		if link == "b" {
			return "c"
		}
		return link
	}

	norm := New(upper, chain)

	// Rules re-run until the link is stable.
	assert.Equal(t, "c", norm("a"))
}
