package xp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolevik.ru/xp-bot/internal/common"
)

// fakeStore держит одного игрока с одним персонажем в памяти.
// Мьютекс воспроизводит сериализацию, которую в Postgres даёт
// блокировка строки.
type fakeStore struct {
	mu sync.Mutex

	player PlayerState
	char   CharacterState

	resetCalls int
	logged     []Grant
	logErr     error
}

func (f *fakeStore) Player(_ context.Context, userID int64) (*PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if userID != f.player.UserID {
		return nil, common.ErrPlayerNotFound
	}
	p := f.player
	return &p, nil
}

func (f *fakeStore) ResetDaily(_ context.Context, userID int64, localDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	f.char.DailyXP = 0
	f.char.DailyHF = 0
	f.char.CharBuffer = 0
	d := localDate
	f.player.LastReset = &d
	return nil
}

func (f *fakeStore) AccrueRP(_ context.Context, userID int64, added int, rules Rules) (*RPOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.char.UserID != userID {
		return nil, common.ErrNoActiveCharacter
	}

	d := DecideRP(f.char.CharBuffer, added, rules.CharsPerUnit, f.char.DailyXP, rules.DailyRPCap)
	out := &RPOutcome{
		CharacterName: f.char.Name,
		AwardUnits:    d.AwardUnits,
		OldXP:         f.char.XP,
		NewXP:         f.char.XP + int64(d.AwardUnits),
		NewBuffer:     d.NewBuffer,
	}
	f.char.XP = out.NewXP
	f.char.DailyXP += d.AwardUnits
	f.char.CharBuffer = d.NewBuffer
	return out, nil
}

func (f *fakeStore) AccrueHF(_ context.Context, charID int64, success bool, rules Rules) (int, int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.char.ID != charID {
		return 0, 0, 0, common.ErrCharacterNotFound
	}

	awarded := DecideHF(f.char.DailyHF, success, rules)
	oldXP := f.char.XP
	f.char.XP += int64(awarded)
	f.char.DailyHF += awarded
	return awarded, oldXP, f.char.XP, nil
}

func (f *fakeStore) AwardXP(_ context.Context, charID int64, delta int64) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.char.ID != charID {
		return 0, 0, common.ErrCharacterNotFound
	}

	oldXP := f.char.XP
	f.char.XP += delta
	if f.char.XP < 0 {
		f.char.XP = 0
	}
	return oldXP, f.char.XP, nil
}

func (f *fakeStore) LogGrant(_ context.Context, characterID, grantedBy int64, amount int64, memo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return f.logErr
	}
	var m *string
	if memo != "" {
		m = &memo
	}
	f.logged = append(f.logged, Grant{CharacterID: characterID, GrantedBy: grantedBy, Amount: amount, Memo: m})
	return nil
}

func (f *fakeStore) GrantHistory(_ context.Context, characterID int64, limit int) ([]Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Grant
	for i := len(f.logged) - 1; i >= 0 && len(out) < limit; i-- {
		if f.logged[i].CharacterID == characterID {
			out = append(out, f.logged[i])
		}
	}
	return out, nil
}

func testRules() Rules {
	return Rules{CharsPerUnit: 240, DailyRPCap: 10, HFAttemptXP: 1, HFSuccessXP: 5, DailyHFCap: 10}
}

func newTestService(store *fakeStore) *Service {
	s := NewService(store, 1, time.Millisecond)
	return s
}

func storeWith(lastReset *time.Time, char CharacterState) *fakeStore {
	return &fakeStore{
		player: PlayerState{UserID: 100, Timezone: "UTC", LastReset: lastReset},
		char:   char,
	}
}

func TestAccrueRP_AwardsUnits(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 250})
	svc := newTestService(store)

	// 1000 рун при ставке 240: 4 единицы, остаток 40.
	res, err := svc.AccrueRP(context.Background(), 100, strings.Repeat("а", 1000), testRules())

	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Awarded)
	assert.Equal(t, int64(254), res.NewXP)
	assert.Equal(t, 40, store.char.CharBuffer)
	assert.Equal(t, 0, store.resetCalls)
}

func TestAccrueRP_EmptyTextIsNoop(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн"})
	svc := newTestService(store)

	res, err := svc.AccrueRP(context.Background(), 100, "", testRules())

	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAccrueRP_ResetAppliedBeforeAccrual(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	// Счётчики вчерашнего дня: лимит выбран, в остатке мусор.
	store := storeWith(&yesterday, CharacterState{
		ID: 1, UserID: 100, Name: "Арагорн", XP: 500, DailyXP: 10, DailyHF: 10, CharBuffer: 200,
	})
	svc := newTestService(store)

	res, err := svc.AccrueRP(context.Background(), 100, strings.Repeat("ж", 480), testRules())

	require.NoError(t, err)
	assert.Equal(t, 1, store.resetCalls)
	// После сброса лимит снова свободен: 480 рун = 2 единицы.
	assert.Equal(t, int64(2), res.Awarded)
	assert.Equal(t, 2, store.char.DailyXP)
	assert.Equal(t, 0, store.char.CharBuffer)
}

func TestAccrueRP_NoActiveCharacter(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 999, Name: "Чужой"})
	svc := newTestService(store)

	_, err := svc.AccrueRP(context.Background(), 100, "текст сообщения", testRules())

	assert.ErrorIs(t, err, common.ErrNoActiveCharacter)
}

func TestAccrueHF_ResetAppliedOnHFPath(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	store := storeWith(&yesterday, CharacterState{
		ID: 1, UserID: 100, Name: "Арагорн", XP: 100, DailyHF: 10,
	})
	svc := newTestService(store)

	res, err := svc.AccrueHF(context.Background(), 100, 1, "Арагорн", true, testRules())

	require.NoError(t, err)
	assert.Equal(t, 1, store.resetCalls)
	// Вчерашний лимит не мешает: 1 за попытку + 5 за успех.
	assert.Equal(t, int64(6), res.Awarded)
	assert.Equal(t, int64(106), res.NewXP)
}

func TestAccrueHF_CapTrims(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{
		ID: 1, UserID: 100, Name: "Арагорн", XP: 100, DailyHF: 8,
	})
	svc := newTestService(store)

	res, err := svc.AccrueHF(context.Background(), 100, 1, "Арагорн", true, testRules())

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Awarded)
}

func TestGrant_BypassesExhaustedCaps(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{
		ID: 1, UserID: 100, Name: "Арагорн", XP: 250, DailyXP: 10, DailyHF: 10,
	})
	svc := newTestService(store)

	res, err := svc.Grant(context.Background(), 1, "Арагорн", 100, 7, "за квест")

	require.NoError(t, err)
	assert.Equal(t, int64(350), res.NewXP)
	require.Len(t, store.logged, 1)
	assert.Equal(t, int64(100), store.logged[0].Amount)
	assert.Equal(t, int64(7), store.logged[0].GrantedBy)
}

func TestGrant_LevelUpDetected(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 250})
	svc := newTestService(store)

	res, err := svc.Grant(context.Background(), 1, "Арагорн", 100, 7, "")

	require.NoError(t, err)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)
}

func TestGrant_NegativeClampedAtZero(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 50})
	svc := newTestService(store)

	res, err := svc.Grant(context.Background(), 1, "Арагорн", -200, 7, "штраф")

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewXP)
}

func TestGrant_OutOfBoundsRejected(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 50})
	svc := newTestService(store)

	_, err := svc.Grant(context.Background(), 1, "Арагорн", common.MaxXPGrant+1, 7, "")

	assert.ErrorIs(t, err, common.ErrInvalidAmount)
	assert.Equal(t, int64(50), store.char.XP)
	assert.Empty(t, store.logged)
}

func TestGrant_LogFailureDoesNotFailAward(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 50})
	store.logErr = errors.New("журнал недоступен")
	svc := newTestService(store)

	res, err := svc.Grant(context.Background(), 1, "Арагорн", 100, 7, "")

	require.NoError(t, err)
	assert.Equal(t, int64(150), res.NewXP)
}

func TestRecentGrants_NewestFirst(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 0})
	svc := newTestService(store)

	_, err := svc.Grant(context.Background(), 1, "Арагорн", 100, 7, "за квест")
	require.NoError(t, err)
	_, err = svc.Grant(context.Background(), 1, "Арагорн", -20, 7, "штраф")
	require.NoError(t, err)

	grants, err := svc.RecentGrants(context.Background(), 1, 3)

	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, int64(-20), grants[0].Amount)
	assert.Equal(t, int64(100), grants[1].Amount)
	require.NotNil(t, grants[1].Memo)
	assert.Equal(t, "за квест", *grants[1].Memo)
}

// Две параллельные выдачи +1 обязаны дать ровно +2:
// дельты относительные и сериализуются хранилищем.
func TestGrant_ConcurrentAwardsBothLand(t *testing.T) {
	today := time.Now().UTC()
	store := storeWith(&today, CharacterState{ID: 1, UserID: 100, Name: "Арагорн", XP: 0})
	svc := newTestService(store)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Grant(context.Background(), 1, "Арагорн", 1, 7, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), store.char.XP)
}
