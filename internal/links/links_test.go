package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []Link
	}{
		{
			name: "document order and trimming",
			html: `<html><body>
<a href="/one">  First  </a>
<p><a href="https://example.com/two">Second</a></p>
</body></html>`,
			want: []Link{
				{Text: "First", Href: "/one"},
				{Text: "Second", Href: "https://example.com/two"},
			},
		},
		{
			name: "skips anchors without href",
			html: `<a name="top">Top</a><a href="/x">X</a><a>bare</a>`,
			want: []Link{{Text: "X", Href: "/x"}},
		},
		{
			name: "keeps empty href",
			html: `<a href="">Empty</a>`,
			want: []Link{{Text: "Empty", Href: ""}},
		},
		{
			name: "concatenates descendant text",
			html: `<a href="/data/april.xls"><span>Monthly A&amp;E April</span> <strong>XLS</strong> Tables</a>`,
			want: []Link{{Text: "Monthly A&E April XLS Tables", Href: "/data/april.xls"}},
		},
		{
			name: "tolerates malformed markup",
			html: `<p>intro <a href=/a>A</a><p>more <a href='/b'>B</a><table><tr><td>cell`,
			want: []Link{{Text: "A", Href: "/a"}, {Text: "B", Href: "/b"}},
		},
		{
			name: "no anchors",
			html: `<p>nothing here</p>`,
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Extract([]byte(tc.html))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
