package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV(" 123, 456 ,789")
	require.NoError(t, err)
	assert.Equal(t, []int64{123, 456, 789}, ids)

	ids, err = parseInt64CSV("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseInt64CSV("123,abc")
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{1, 2}}

	assert.True(t, cfg.IsAdmin(1))
	assert.False(t, cfg.IsAdmin(3))
}

func TestIsScriptBot(t *testing.T) {
	// Пустой список принимает любого отправителя-бота.
	open := &Config{}
	assert.True(t, open.IsScriptBot(555))

	restricted := &Config{ScriptBotIDs: []int64{100}}
	assert.True(t, restricted.IsScriptBot(100))
	assert.False(t, restricted.IsScriptBot(555))
}
