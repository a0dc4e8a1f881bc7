// File: internal/browser/htmltext_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFromHTML(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			name: "listing card",
			fragment: `<div class="card">
				<h3><a href="/p/123">Samsung 65" DU7010 4K UHD</a></h3>
				<span class="price">R 10,499</span>
			</div>`,
			want: "Samsung 65\" DU7010 4K UHD\nR 10,499",
		},
		{
			name:     "script and style bodies are skipped",
			fragment: `<div><script>track("view")</script><style>.x{}</style><p>visible</p></div>`,
			want:     "visible",
		},
		{
			name:     "whitespace-only nodes collapse",
			fragment: "<div>\n\t  \n<span>only this</span>\n</div>",
			want:     "only this",
		},
		{
			name:     "empty fragment",
			fragment: "",
			want:     "",
		},
		{
			name:     "bare text",
			fragment: "R 2,749",
			want:     "R 2,749",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TextFromHTML(tc.fragment)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
