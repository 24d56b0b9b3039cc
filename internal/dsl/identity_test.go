package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_StableAndSensitive(t *testing.T) {
	content := "app:\n  name: Demo\n"

	// Byte-identical input always hashes the same.
	assert.Equal(t, Fingerprint(content), Fingerprint(content))

	// A single character change must change the digest.
	assert.NotEqual(t, Fingerprint(content), Fingerprint("app:\n  name: Demp\n"))

	// Known digest: hex-encoded SHA-256, 64 chars.
	assert.Len(t, Fingerprint(content), 64)
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Fingerprint(""))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		sourceID string
		path     string
		want     string
	}{
		{"simple", "svcvit-main", "DSL/chat-bot.yml", "svcvit-main-chat-bot"},
		{"nested path", "zhouhui", "dsl/tts/Sora Video.yaml", "zhouhui-sora-video"},
		{"uppercase extension", "x", "flows/Agent.YAML", "x-agent"},
		{"punctuation collapsed", "x", "a/b/Hello__World--2.0.yml", "x-hello-world-2-0"},
		{"leading and trailing separators", "x", "-_weird_-.yml", "x-weird"},
		{"unicode filename", "x", "DSL/翻译.yml", "x-unknown"},
		{"no extension stripped only once", "x", "backup.yml.yml", "x-backup-yml"},
		{"empty filename", "x", "dir/", "x-unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.sourceID, tt.path)
			assert.Equal(t, tt.want, got)
			// Pure function: repeated calls agree.
			assert.Equal(t, got, Slug(tt.sourceID, tt.path))
		})
	}
}

func TestSlug_DistinctSourcesNeverCollide(t *testing.T) {
	a := Slug("source-a", "flows/bot.yml")
	b := Slug("source-b", "flows/bot.yml")
	assert.NotEqual(t, a, b)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		path     string
		want     string
	}{
		{"declared name wins", "客服机器人", "DSL/chat-bot.yml", "客服机器人"},
		{"title-cased filename", "", "DSL/customer-support_bot.yml", "Customer Support Bot"},
		{"single word", "", "translate.yaml", "Translate"},
		{"empty", "", "/", "Unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.declared, tt.path))
		})
	}
}
