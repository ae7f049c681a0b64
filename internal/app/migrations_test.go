package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Чистка игрока (DELETE FROM players) обязана удалять его персонажей
// каскадом, иначе внешний ключ characters.user_id отклонит удаление
// любого игрока с персонажами.
func TestCharactersCascadeOnPlayerDelete(t *testing.T) {
	assert.Contains(t, migration002Characters,
		"REFERENCES players(user_id) ON DELETE CASCADE",
		"внешний ключ characters.user_id должен каскадировать удаление игрока")

	// Для уже развёрнутых баз каскад добавляется отдельной миграцией.
	assert.Contains(t, migration007PurgeCascade, "DROP CONSTRAINT IF EXISTS characters_user_id_fkey")
	assert.Contains(t, migration007PurgeCascade, "ON DELETE CASCADE")
}

// Записи журнала и участия в квестах держатся на персонаже и уходят
// вместе с ним при чистке.
func TestDependentRowsCascadeFromCharacters(t *testing.T) {
	assert.Contains(t, migration004Grants, "REFERENCES characters(id) ON DELETE CASCADE")
	assert.Contains(t, migration005Quests, "REFERENCES characters(id) ON DELETE CASCADE")
}
