package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestResourceType(t *testing.T) {
	require.Equal(t, "video", ResourceType("/tmp/parsed-muted_1.mp4"))
	require.Equal(t, "video", ResourceType("extracted-audio_1.MP3"))
	require.Equal(t, "auto", ResourceType("notes.txt"))
}

func TestPublicIDSanitizesName(t *testing.T) {
	now := time.Unix(0, 42)
	require.Equal(t, "parsed-muted-1-42", PublicID("/tmp/media-1/parsed muted_1.mp4", now))
	require.Equal(t, "media-42", PublicID("___.mp3", now))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
