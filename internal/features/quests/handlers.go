// Package quests — handlers.go обрабатывает команду !квест с
// подкомандами: старт, пк, убрать, дм, монстр, завершить, удалить,
// инфо, список, архив. Права ведущего проверяет маршрутизатор.
//
// Многословные поля разделяются вертикальной чертой:
//
//	!квест старт Логово дракона | ваншот | 3-5
//	!квест пк Логово дракона | Арагорн
//	!квест монстр Логово дракона | 1/2 4 кобольд
package quests

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Handler обрабатывает команды квестов.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик команд квестов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

const questUsage = `Команды квестов:
!квест старт <название> [| тип] [| уровни] — создать
!квест пк <название> | <персонаж> — записать персонажа
!квест убрать <название> | <персонаж> — выписать персонажа
!квест дм <название> @ведущий — назначить ведущего
!квест монстр <название> | <CR> [количество] [имя] — записать монстров
!квест завершить <название> — завершить и раздать опыт
!квест удалить <название> — удалить без следа
!квест инфо <название> — подробности
!квест список — активные квесты
!квест архив — завершённые квесты`

// HandleQuest разбирает подкоманду !квест и передаёт управление.
func (h *Handler) HandleQuest(ctx context.Context, chatID int64, userID int64, args []string, mentioned map[int64]bool) {
	if len(args) == 0 {
		h.sendMessage(chatID, questUsage)
		return
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]

	switch sub {
	case "старт":
		h.handleStart(ctx, chatID, userID, rest)
	case "пк":
		h.handleAddParticipant(ctx, chatID, rest, mentioned)
	case "убрать":
		h.handleRemoveParticipant(ctx, chatID, rest, mentioned)
	case "дм":
		h.handleAddDM(ctx, chatID, rest, mentioned)
	case "монстр":
		h.handleAddMonster(ctx, chatID, rest)
	case "завершить":
		h.handleComplete(ctx, chatID, userID, rest)
	case "удалить":
		h.handleDelete(ctx, chatID, rest)
	case "инфо":
		h.handleInfo(ctx, chatID, rest)
	case "список":
		h.handleList(ctx, chatID)
	case "архив":
		h.handleArchive(ctx, chatID)
	default:
		h.sendMessage(chatID, questUsage)
	}
}

// splitFields режет аргументы по вертикальной черте на поля.
func splitFields(args []string) []string {
	joined := strings.Join(args, " ")
	parts := strings.Split(joined, "|")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, strings.TrimSpace(p))
	}
	return fields
}

func (h *Handler) handleStart(ctx context.Context, chatID int64, userID int64, args []string) {
	fields := splitFields(args)
	if len(fields) == 0 || fields[0] == "" {
		h.sendMessage(chatID, "❌ Формат: !квест старт Название [| тип] [| уровни]")
		return
	}

	name := fields[0]
	questType, bracket := "", ""
	if len(fields) > 1 {
		questType = fields[1]
	}
	if len(fields) > 2 {
		bracket = fields[2]
	}

	q, err := h.service.Start(ctx, chatID, name, questType, bracket, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateQuest):
			h.sendMessage(chatID, fmt.Sprintf("❌ Активный квест «%s» уже есть", name))
		case errors.Is(err, common.ErrLevelBracket):
			h.sendMessage(chatID, "❌ Диапазон уровней задаётся как 3-5 или 5")
		default:
			log.WithError(err).Error("Ошибка создания квеста")
			h.sendMessage(chatID, "❌ Ошибка создания квеста")
		}
		return
	}

	text := fmt.Sprintf("⚔️ Квест «%s» начат", q.Name)
	if q.LevelBracket != "" {
		text += fmt.Sprintf(" (уровни %s)", q.LevelBracket)
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) handleAddParticipant(ctx context.Context, chatID int64, args []string, mentioned map[int64]bool) {
	fields := splitFields(args)
	if len(fields) < 2 {
		h.sendMessage(chatID, "❌ Формат: !квест пк Название | Имя Персонажа")
		return
	}

	q, m, err := h.service.AddParticipant(ctx, chatID, fields[0], fields[1], mentioned)
	if err != nil {
		h.replyQuestError(chatID, err, "Ошибка записи участника")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ «%s» записан в квест «%s»", m.Character.Name, q.Name))
}

func (h *Handler) handleRemoveParticipant(ctx context.Context, chatID int64, args []string, mentioned map[int64]bool) {
	fields := splitFields(args)
	if len(fields) < 2 {
		h.sendMessage(chatID, "❌ Формат: !квест убрать Название | Имя Персонажа")
		return
	}

	if err := h.service.RemoveParticipant(ctx, chatID, fields[0], fields[1], mentioned); err != nil {
		h.replyQuestError(chatID, err, "Ошибка удаления участника")
		return
	}

	h.sendMessage(chatID, "✅ Персонаж выписан из квеста")
}

func (h *Handler) handleAddDM(ctx context.Context, chatID int64, args []string, mentioned map[int64]bool) {
	fields := splitFields(args)
	if len(fields) == 0 || fields[0] == "" || len(mentioned) == 0 {
		h.sendMessage(chatID, "❌ Формат: !квест дм Название @ведущий")
		return
	}

	// Имя квеста без хвостовых упоминаний.
	name := strings.TrimSpace(stripMentions(fields[0]))

	var q *Quest
	for userID := range mentioned {
		var err error
		q, err = h.service.AddDM(ctx, chatID, name, userID)
		if err != nil {
			h.replyQuestError(chatID, err, "Ошибка назначения ведущего")
			return
		}
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Ведущие квеста «%s» назначены", q.Name))
}

func (h *Handler) handleAddMonster(ctx context.Context, chatID int64, args []string) {
	fields := splitFields(args)
	if len(fields) < 2 || fields[1] == "" {
		h.sendMessage(chatID, "❌ Формат: !квест монстр Название | CR [количество] [имя монстра]")
		return
	}

	// Второе поле: CR [количество] [имя монстра].
	parts := strings.Fields(fields[1])
	cr := parts[0]
	count := 1
	var name *string
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			count = n
			parts = parts[2:]
		} else {
			parts = parts[1:]
		}
		if len(parts) > 0 {
			joined := strings.Join(parts, " ")
			name = &joined
		}
	}

	q, err := h.service.AddMonster(ctx, chatID, fields[0], cr, name, count)
	if err != nil {
		h.replyQuestError(chatID, err, "Ошибка записи монстра")
		return
	}

	label := "CR " + cr
	if name != nil {
		label = *name + " (" + label + ")"
	}
	h.sendMessage(chatID, fmt.Sprintf("🐉 В квест «%s» записано: %s ×%d", q.Name, label, count))
}

func (h *Handler) handleComplete(ctx context.Context, chatID int64, userID int64, args []string) {
	fields := splitFields(args)
	if len(fields) == 0 || fields[0] == "" {
		h.sendMessage(chatID, "❌ Формат: !квест завершить Название")
		return
	}

	st, err := h.service.Complete(ctx, chatID, fields[0], userID)
	if err != nil {
		h.replyQuestError(chatID, err, "Ошибка завершения квеста")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏁 Квест «%s» завершён!\n", st.Quest.Name))
	sb.WriteString(fmt.Sprintf("Побеждено %d %s, опыт за квест: %s\n",
		st.XP.MonsterCount, common.PluralizeMonsters(st.XP.MonsterCount), common.FormatNumber(st.XP.TotalXP)))
	for _, e := range st.XP.Breakdown {
		if e.Err != nil {
			sb.WriteString(fmt.Sprintf("⚠️ CR %s ×%d — неизвестный класс, не учтён\n", e.CR, e.Count))
		}
	}
	if st.Participants > 0 {
		sb.WriteString(fmt.Sprintf("Участников: %d, каждому %s\n",
			st.Participants, common.FormatXP(st.Share)))
	} else {
		sb.WriteString("Участников нет — опыт не распределён\n")
	}

	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleDelete(ctx context.Context, chatID int64, args []string) {
	fields := splitFields(args)
	if len(fields) == 0 || fields[0] == "" {
		h.sendMessage(chatID, "❌ Формат: !квест удалить Название")
		return
	}

	if err := h.service.Delete(ctx, chatID, fields[0]); err != nil {
		h.replyQuestError(chatID, err, "Ошибка удаления квеста")
		return
	}

	h.sendMessage(chatID, "🗑 Квест удалён")
}

func (h *Handler) handleInfo(ctx context.Context, chatID int64, args []string) {
	fields := splitFields(args)
	if len(fields) == 0 || fields[0] == "" {
		h.sendMessage(chatID, "❌ Формат: !квест инфо Название")
		return
	}

	q, participants, dms, monsters, err := h.service.Info(ctx, chatID, fields[0])
	if err != nil {
		h.replyQuestError(chatID, err, "Ошибка получения квеста")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚔️ «%s»", q.Name))
	if q.QuestType != "" {
		sb.WriteString(" — " + q.QuestType)
	}
	sb.WriteString("\n")
	if q.LevelBracket != "" {
		sb.WriteString("Уровни: " + q.LevelBracket + "\n")
	}
	sb.WriteString("Начат: " + common.FormatDate(q.StartDate) + "\n")
	if q.Status == StatusCompleted && q.EndDate != nil {
		days := int(q.EndDate.Sub(q.StartDate).Hours()/24) + 1
		sb.WriteString(fmt.Sprintf("Завершён: %s (шёл %d %s)\n",
			common.FormatDate(*q.EndDate), days, common.PluralizeDays(days)))
	}

	if len(participants) > 0 {
		sb.WriteString("Участники:\n")
		for _, p := range participants {
			sb.WriteString(fmt.Sprintf("  %s (%d уровень на старте)\n", p.CharacterName, p.StartingLevel))
		}
	} else {
		sb.WriteString("Участников пока нет\n")
	}

	sb.WriteString(fmt.Sprintf("Ведущих: %d\n", len(dms)))

	if len(monsters) > 0 {
		st := Settle(q, len(participants), monsters)
		if q.Status == StatusCompleted {
			// Состав завершённого квеста заморожен, расчёт по нему
			// воспроизводит итог раздачи.
			sb.WriteString(fmt.Sprintf("Монстров: %d, опыт за квест: %s\n",
				st.XP.MonsterCount, common.FormatNumber(st.XP.TotalXP)))
			if st.Participants > 0 {
				sb.WriteString(fmt.Sprintf("Каждому участнику выдано %s\n", common.FormatXP(st.Share)))
			}
		} else {
			sb.WriteString(fmt.Sprintf("Монстров: %d, текущий опыт за квест: %s\n",
				st.XP.MonsterCount, common.FormatNumber(st.XP.TotalXP)))
		}
	}

	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleList(ctx context.Context, chatID int64) {
	quests, err := h.service.ListActive(ctx, chatID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка квестов")
		h.sendMessage(chatID, "❌ Ошибка получения списка квестов")
		return
	}

	if len(quests) == 0 {
		h.sendMessage(chatID, "Активных квестов нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("⚔️ Активные квесты:\n")
	for _, q := range quests {
		sb.WriteString("  " + q.Name)
		if q.LevelBracket != "" {
			sb.WriteString(" (уровни " + q.LevelBracket + ")")
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleArchive(ctx context.Context, chatID int64) {
	quests, err := h.service.Archive(ctx, chatID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения архива квестов")
		h.sendMessage(chatID, "❌ Ошибка получения архива квестов")
		return
	}

	if len(quests) == 0 {
		h.sendMessage(chatID, "Завершённых квестов пока нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 Завершённые квесты:\n")
	for _, q := range quests {
		sb.WriteString("  " + q.Name)
		if q.EndDate != nil {
			sb.WriteString(" — " + common.FormatDate(*q.EndDate))
		}
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
}

// replyQuestError переводит ошибки квестов в понятный ответ.
func (h *Handler) replyQuestError(chatID int64, err error, logMsg string) {
	switch {
	case errors.Is(err, common.ErrQuestNotFound):
		h.sendMessage(chatID, "❌ Активный квест с таким названием не найден")
	case errors.Is(err, common.ErrQuestCompleted):
		h.sendMessage(chatID, "❌ Квест уже завершён")
	case errors.Is(err, common.ErrCharacterNotFound):
		h.sendMessage(chatID, "❌ Персонаж не найден")
	case errors.Is(err, common.ErrCharacterAmbiguous):
		h.sendMessage(chatID, "❌ Персонажей с таким именем несколько — упомяни владельца")
	case errors.Is(err, common.ErrLevelBracket):
		h.sendMessage(chatID, "❌ "+err.Error())
	default:
		log.WithError(err).Error(logMsg)
		h.sendMessage(chatID, "❌ "+logMsg)
	}
}

// stripMentions убирает @упоминания из строки.
func stripMentions(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if strings.HasPrefix(w, "@") {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
