package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nMAIL_PASSWORD=mail-from-file\n"), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MAIL_PASSWORD", "")
	os.Unsetenv("MAIL_PASSWORD")

	loadDotEnv(path)

	assert.Equal(t, "from-env", os.Getenv("JWT_SECRET"))
	assert.Equal(t, "mail-from-file", os.Getenv("MAIL_PASSWORD"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	assert.NotPanics(t, func() {
		loadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	})
}
