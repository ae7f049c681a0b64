package characters

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"rolevik.ru/xp-bot/internal/common"
)

// fuzzyCutoff — минимальная схожесть имени для нечёткого совпадения.
// Имена со схожестью ниже порога считаются разными.
const fuzzyCutoff = 0.6

// Disambiguate выбирает единственного персонажа из найденных по имени.
//
// Если совпадение одно — оно и возвращается. Если имена совпали у
// нескольких игроков, владельца определяют упоминания в сообщении:
// ровно один упомянутый владелец снимает неоднозначность. В любом
// другом случае начисление не происходит — лучше не выдать опыт,
// чем выдать его чужому персонажу.
func Disambiguate(matches []Match, mentionedOwners map[int64]bool) (*Match, error) {
	switch len(matches) {
	case 0:
		return nil, common.ErrCharacterNotFound
	case 1:
		return &matches[0], nil
	}

	var candidate *Match
	for i := range matches {
		if !mentionedOwners[matches[i].OwnerID] {
			continue
		}
		if candidate != nil {
			return nil, common.ErrCharacterAmbiguous
		}
		candidate = &matches[i]
	}

	if candidate == nil {
		return nil, common.ErrCharacterAmbiguous
	}

	return candidate, nil
}

// similarity возвращает схожесть двух имён от 0 до 1.
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// ClosestName ищет среди имён ближайшее к введённому.
// Возвращает имя и признак того, что совпадение достаточно похоже.
func ClosestName(input string, names []string) (string, bool) {
	best := ""
	bestScore := 0.0

	for _, name := range names {
		score := similarity(input, name)
		if score > bestScore {
			best = name
			bestScore = score
		}
	}

	return best, bestScore >= fuzzyCutoff
}
