package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rolevik.ru/xp-bot/internal/features/settings"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{"восклицательный знак", "!перс Арагорн", "перс", []string{"Арагорн"}, true},
		{"точка", ".топ", "топ", nil, true},
		{"слэш", "/login секрет", "login", []string{"секрет"}, true},
		{"регистр команды", "!ПЕРС", "перс", nil, true},
		{"без префикса", "перс Арагорн", "", nil, false},
		{"обычное сообщение", "Арагорн вошёл в таверну", "", nil, false},
		{"только префикс", "!", "", nil, false},
		{"пробелы вокруг", "  !топ  ", "топ", nil, true},
		{"несколько аргументов", "!выдать Арагорн 500 за квест", "выдать", []string{"Арагорн", "500", "за", "квест"}, true},
		{"пустая строка", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, isCommand := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isCommand, isCommand)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRulesFrom(t *testing.T) {
	cfg := &settings.ChatConfig{
		CharsPerXP:  240,
		DailyRPCap:  10,
		HFAttemptXP: 1,
		HFSuccessXP: 5,
		DailyHFCap:  12,
	}

	rules := rulesFrom(cfg)

	assert.Equal(t, 240, rules.CharsPerUnit)
	assert.Equal(t, 10, rules.DailyRPCap)
	assert.Equal(t, 1, rules.HFAttemptXP)
	assert.Equal(t, 5, rules.HFSuccessXP)
	assert.Equal(t, 12, rules.DailyHFCap)
}
