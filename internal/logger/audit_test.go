package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-admin/rollcall/internal/logger"
)

func TestAudit(t *testing.T) {
	var buf bytes.Buffer

	logger.SetAuditLogger(zerolog.New(&buf))
	t.Cleanup(func() { logger.SetAuditLogger(zerolog.Nop()) })

	// global level must not hide audit entries
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	logger.Audit("admin", logger.ActionDelete, "PERSON", "mariajose")
	logger.AuditBulk("admin", logger.ActionBulkCreate, "USER", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "admin", first["actor"])
	assert.Equal(t, "DELETE", first["action"])
	assert.Equal(t, "PERSON", first["resource"])
	assert.Equal(t, "mariajose", first["subject"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "BULK_CREATE", second["action"])
	assert.EqualValues(t, 3, second["count"])
}
