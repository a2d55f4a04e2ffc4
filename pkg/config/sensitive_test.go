package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact non-empty values when printed", func(t *testing.T) {
		s := SensitiveString("hunter2")
		assert.Equal(t, "[REDACTED]", s.String())
		assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
		assert.NotContains(t, fmt.Sprintf("%#v", s), "hunter2")
	})

	t.Run("Should keep empty values empty", func(t *testing.T) {
		assert.Equal(t, "", SensitiveString("").String())
	})

	t.Run("Should return the raw value", func(t *testing.T) {
		assert.Equal(t, "hunter2", SensitiveString("hunter2").Value())
	})

	t.Run("Should redact the database password in JSON", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Password = "hunter2"
		data, err := json.Marshal(cfg.Database)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "hunter2")
		assert.Contains(t, string(data), `"password":"[REDACTED]"`)
	})
}
