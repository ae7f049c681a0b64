package xp

import "strings"

// ActivityKind — вид скриптовой добычи.
type ActivityKind string

const (
	ActivityHunting  ActivityKind = "hunting"
	ActivityForaging ActivityKind = "foraging"
	ActivityFishing  ActivityKind = "fishing"
)

// Сообщения стороннего игрового бота приходят на английском,
// поэтому ключевые фразы не переводятся.
const activitySeparator = " goes "

var activityKeywords = map[string]ActivityKind{
	"goes hunting":  ActivityHunting,
	"goes foraging": ActivityForaging,
	"goes fishing":  ActivityFishing,
}

var successKeywords = []string{
	"time to harvest",
	"time to gut and harvest",
}

// Activity — распознанная попытка добычи из сообщения игрового бота.
type Activity struct {
	CharacterName string       // Имя персонажа из текста сообщения
	Kind          ActivityKind // Вид добычи
	Success       bool         // Добыча удалась
}

// DetectActivity распознаёт в тексте сообщение о попытке добычи.
// Имя персонажа — всё, что стоит до " goes ". Сообщения без
// ключевых фраз или без имени не считаются добычей.
func DetectActivity(text string) (*Activity, bool) {
	lower := strings.ToLower(text)

	var kind ActivityKind
	found := false
	for keyword, k := range activityKeywords {
		if strings.Contains(lower, keyword) {
			kind = k
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	idx := strings.Index(lower, activitySeparator)
	if idx <= 0 {
		return nil, false
	}

	name := strings.TrimSpace(text[:idx])
	if name == "" {
		return nil, false
	}

	success := false
	for _, keyword := range successKeywords {
		if strings.Contains(lower, keyword) {
			success = true
			break
		}
	}

	return &Activity{CharacterName: name, Kind: kind, Success: success}, true
}
