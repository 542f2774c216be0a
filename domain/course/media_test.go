package course

import (
	"errors"
	"testing"

	"edusync/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain", url: "https://acct.blob.core.windows.net/media/intro.mp4", want: "intro.mp4"},
		{name: "percent encoded", url: "https://acct.blob.core.windows.net/media/week%201%20notes.pdf", want: "week 1 notes.pdf"},
		{name: "query ignored", url: "https://acct.blob.core.windows.net/media/a.png?sv=2021&sig=x", want: "a.png"},
		{name: "empty", url: "", wantErr: true},
		{name: "relative", url: "media/a.png", wantErr: true},
		{name: "trailing slash", url: "https://acct.blob.core.windows.net/media/", wantErr: true},
		{name: "host only", url: "https://acct.blob.core.windows.net", wantErr: true},
		{name: "bad escape", url: "https://acct.blob.core.windows.net/media/a%zz.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArtifactName(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
