package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceVideoRef_Valid(t *testing.T) {
	ref, err := SourceVideoRef("/videos/123", "vimeo.com")

	require.NoError(t, err)
	assert.Equal(t, "https://player.vimeo.com/video/123", ref)
}

func TestSourceVideoRef_DefaultDomain(t *testing.T) {
	ref, err := SourceVideoRef("/videos/987654321", "")

	require.NoError(t, err)
	assert.Equal(t, "https://player.vimeo.com/video/987654321", ref)
}

func TestSourceVideoRef_CustomDomain(t *testing.T) {
	ref, err := SourceVideoRef("/videos/42", "example.org")

	require.NoError(t, err)
	assert.Equal(t, "https://player.example.org/video/42", ref)
}

func TestSourceVideoRef_RejectsOtherShapes(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"no id", "/videos/"},
		{"non numeric id", "/videos/abc"},
		{"trailing segment", "/videos/123/pictures"},
		{"folder uri", "/users/1/projects/2"},
		{"absolute url", "https://api.vimeo.com/videos/123"},
		{"mixed id", "/videos/12a"},
		{"trailing slash", "/videos/123/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := SourceVideoRef(tt.uri, "vimeo.com")

			assert.Empty(t, ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.uri, fe.Value)
		})
	}
}

func TestVideoMapping_IsMapped(t *testing.T) {
	var nilMapping *VideoMapping
	assert.False(t, nilMapping.IsMapped())
	assert.False(t, (&VideoMapping{}).IsMapped())
	assert.False(t, (&VideoMapping{TargetVideoID: StringPtr("")}).IsMapped())
	assert.True(t, (&VideoMapping{TargetVideoID: StringPtr("t-1")}).IsMapped())
}

func TestSameParent(t *testing.T) {
	tests := []struct {
		name string
		a, b *string
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and set", nil, StringPtr("p"), false},
		{"set and nil", StringPtr("p"), nil, false},
		{"equal", StringPtr("p"), StringPtr("p"), true},
		{"different", StringPtr("p"), StringPtr("q"), false},
		{"empty is not nil", StringPtr(""), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameParent(tt.a, tt.b))
		})
	}
}

func TestSourceFolder_IsLeaf(t *testing.T) {
	assert.True(t, SourceFolder{Name: "a"}.IsLeaf())
	assert.False(t, SourceFolder{VideosURI: "/v"}.IsLeaf())
	assert.False(t, SourceFolder{ItemsURI: "/i"}.IsLeaf())
}
