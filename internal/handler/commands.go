package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"wordflash/internal/domain"
	"wordflash/internal/pause"
	"wordflash/internal/service"
	"wordflash/internal/settings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// commandPayload returns everything after the command word, newlines included
func commandPayload(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

// parsePriorityArgs splits "word = translation"
func parsePriorityArgs(payload string) (word, translation string, ok bool) {
	word, translation, found := strings.Cut(payload, "=")
	word, translation = strings.TrimSpace(word), strings.TrimSpace(translation)
	if !found || word == "" || translation == "" {
		return word, "", false
	}
	return word, translation, true
}

// send replies to a command or to a button press
func (h *Handler) send(c tele.Context, text string, opts ...interface{}) error {
	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
		}
	}
	return c.Send(text, opts...)
}

// handleStats handles /stats
func (h *Handler) handleStats(c tele.Context) error {
	summary, err := h.services.Stats.Summary(context.Background())
	if err != nil {
		return h.send(c, msgError)
	}
	return h.send(c, h.formatStats(summary, time.Now()), mainMenuMarkup())
}

func (h *Handler) formatStats(summary *service.Summary, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📊 Статистика\n\n")
	fmt.Fprintf(&sb, "Всего слов: %d\nВ избранном: %d\n\n", summary.Total, summary.Favorites)
	for _, level := range domain.RepeatTypes() {
		if n := summary.Levels[level]; n > 0 {
			fmt.Fprintf(&sb, "%s: %d\n", level, n)
		}
	}

	if reasons := h.pause.GetPauseReasons(); reasons != "" {
		fmt.Fprintf(&sb, "\n⏸ Пауза: %s\n", reasons)
	}

	if h.status != nil {
		status := h.status.Status()
		fmt.Fprintf(&sb, "\nЧастота карточек: %s\n", status.Frequency)
		if status.NextShow.After(now) {
			fmt.Fprintf(&sb, "Следующая карточка через %s\n", status.NextShow.Sub(now).Round(time.Second))
		}
	}
	return sb.String()
}

// handlePause handles /pause
func (h *Handler) handlePause(c tele.Context) error {
	h.pauseMux.Lock()
	defer h.pauseMux.Unlock()

	if h.pause.IsPausedBy(pause.ReasonUserRequest) {
		return h.send(c, "Карточки уже на паузе. /resume чтобы продолжить.")
	}
	h.pause.PauseActivity(pause.ReasonUserRequest, c.Sender().Username)
	h.logger.Info("Paused by user", zap.Int64("user_id", c.Sender().ID))
	return h.send(c, "⏸ Карточки на паузе. /resume чтобы продолжить.")
}

// handleResume handles /resume
func (h *Handler) handleResume(c tele.Context) error {
	h.pauseMux.Lock()
	defer h.pauseMux.Unlock()

	if !h.pause.IsPausedBy(pause.ReasonUserRequest) {
		return h.send(c, "Карточки не на паузе.")
	}
	h.pause.ResumeActivity(pause.ReasonUserRequest)
	h.logger.Info("Resumed by user", zap.Int64("user_id", c.Sender().ID))
	return h.send(c, "▶️ Карточки снова приходят.")
}

// handlePriority handles /priority <word> = <translation>
func (h *Handler) handlePriority(c tele.Context) error {
	return c.Send(h.priority(context.Background(), commandPayload(c.Text())))
}

func (h *Handler) priority(ctx context.Context, payload string) string {
	word, translation, ok := parsePriorityArgs(payload)
	if word == "" {
		return "Использование: /priority слово = перевод"
	}
	key := h.services.Words.Key(word)

	if !ok {
		pinned, err := h.services.Priority.List(ctx, key)
		if err != nil {
			h.logger.Error("Failed to list priority words", zap.Error(err))
			return msgError
		}
		if len(pinned) == 0 {
			return fmt.Sprintf("У «%s» нет приоритетных переводов", word)
		}
		return fmt.Sprintf("Приоритетные переводы «%s»: %s", word, strings.Join(pinned, ", "))
	}

	pinned, err := h.services.Priority.Toggle(ctx, key, translation)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Sprintf("У «%s» нет перевода «%s»", word, translation)
	}
	if err != nil {
		h.logger.Error("Failed to toggle priority word", zap.Error(err))
		return msgError
	}
	if pinned {
		return fmt.Sprintf("📌 «%s» теперь спрашивается только как «%s»", word, translation)
	}
	return fmt.Sprintf("«%s» больше не в приоритете у «%s»", translation, word)
}

// handleFrequency handles /frequency <duration>
func (h *Handler) handleFrequency(c tele.Context) error {
	payload := commandPayload(c.Text())
	if payload == "" {
		return c.Send(fmt.Sprintf("Карточки приходят раз в %s. Изменить: /frequency 15m",
			h.settings.Settings().CardShowFrequency))
	}

	d, err := time.ParseDuration(payload)
	if err != nil {
		return c.Send("Не понял интервал. Пример: /frequency 15m")
	}

	_, err = h.settings.Update(func(s *domain.Settings) error {
		s.CardShowFrequency = d
		return nil
	})
	if err != nil {
		h.logger.Warn("Failed to update frequency", zap.Duration("frequency", d), zap.Error(err))
		return c.Send(fmt.Sprintf("Не удалось изменить частоту (минимум %s)", settings.MinFrequency))
	}
	return c.Send(fmt.Sprintf("⏱ Карточки будут приходить раз в %s", d))
}

// handlePromote handles /promote <word>
func (h *Handler) handlePromote(c tele.Context) error {
	return c.Send(h.move(context.Background(), commandPayload(c.Text()), true))
}

// handleDemote handles /demote <word>
func (h *Handler) handleDemote(c tele.Context) error {
	return c.Send(h.move(context.Background(), commandPayload(c.Text()), false))
}

// move promotes or demotes a word by one level
func (h *Handler) move(ctx context.Context, word string, up bool) string {
	if word == "" {
		return "Укажи слово"
	}

	entry, err := h.services.Words.GetEntry(ctx, word)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Sprintf("Слова «%s» нет в словаре", word)
	}
	if err != nil {
		h.logger.Error("Failed to load entry", zap.String("word", word), zap.Error(err))
		return msgError
	}

	var info *domain.LearningInfo
	if up {
		info, err = h.services.Learning.Promote(ctx, entry.Key)
	} else {
		info, err = h.services.Learning.Demote(ctx, entry.Key)
	}
	if err != nil {
		h.logger.Error("Failed to move entry", zap.String("word", word), zap.Bool("up", up), zap.Error(err))
		return msgError
	}

	return fmt.Sprintf("«%s»: уровень %s, следующий показ %s",
		word, info.RepeatType, info.NextCardShowTime.Format("02.01 15:04"))
}
