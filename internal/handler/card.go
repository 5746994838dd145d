package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wordflash/internal/assessment"
	"wordflash/internal/domain"
	"wordflash/internal/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Present sends the card to every authorized user and waits for the first answer
func (h *Handler) Present(ctx context.Context, card *scheduler.Card) error {
	recipients, err := h.services.Auth.Recipients(ctx)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no authorized users")
	}

	h.cardMux.Lock()
	h.card = card
	h.cardMux.Unlock()

	text := formatCard(card.Key, card.Assessment)
	delivered := 0
	for _, userID := range recipients {
		if _, err := h.sender.Send(&tele.User{ID: userID}, text, cardMarkup(card)); err != nil {
			h.logger.Warn("Failed to send card",
				zap.Int64("user_id", userID),
				zap.String("card_id", card.ID.String()),
				zap.Error(err),
			)
			continue
		}
		h.SetState(userID, &domain.StateData{State: domain.StateWaitingAnswer, CardID: card.ID})
		delivered++
	}

	if delivered == 0 {
		h.takeCard(card.ID)
		return fmt.Errorf("card %s was not delivered", card.ID)
	}
	return nil
}

// takeCard detaches the current card when it has the given id and moves
// every user waiting on it back to idle
func (h *Handler) takeCard(id uuid.UUID) *scheduler.Card {
	h.cardMux.Lock()
	card := h.card
	if card == nil || card.ID != id {
		h.cardMux.Unlock()
		return nil
	}
	h.card = nil
	h.cardMux.Unlock()

	h.stateMux.Lock()
	for userID, state := range h.states {
		if state.State == domain.StateWaitingAnswer && state.CardID == id {
			h.states[userID] = &domain.StateData{State: domain.StateIdle}
		}
	}
	h.stateMux.Unlock()
	return card
}

// currentCard returns the open card with the given id
func (h *Handler) currentCard(id uuid.UUID) *scheduler.Card {
	h.cardMux.Lock()
	defer h.cardMux.Unlock()
	if h.card == nil || h.card.ID != id {
		return nil
	}
	return h.card
}

// answer grades text against the card the user is waiting on and returns the reply
func (h *Handler) answer(ctx context.Context, userID int64, text string) string {
	state := h.GetState(userID)
	card := h.takeCard(state.CardID)
	if card == nil {
		h.ResetState(userID)
		return "Эта карточка уже закрыта."
	}

	verdict, err := card.Submit(ctx, text)
	if errors.Is(err, domain.ErrCardNotActive) {
		return "Эта карточка уже закрыта."
	}
	if err != nil {
		// The verdict is still valid, only saving progress failed
		h.logger.Error("Failed to save answer", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.logger.Info("Card answered",
		zap.Int64("user_id", userID),
		zap.String("card_id", card.ID.String()),
		zap.Bool("accepted", verdict.Accepted),
	)
	return formatVerdict(verdict)
}

// cardAction runs a card button action and returns the callback reply
func (h *Handler) cardAction(ctx context.Context, action string, id uuid.UUID) (string, error) {
	card := h.currentCard(id)
	if card == nil {
		return "Карточка уже закрыта", nil
	}

	switch action {
	case btnFavorite.Unique:
		info, err := h.services.Learning.ToggleFavorite(ctx, card.Key)
		if err != nil {
			return "", err
		}
		if info.IsFavorited {
			return "⭐ Добавлено в избранное", nil
		}
		return "Убрано из избранного", nil

	case btnHide.Unique:
		if err := h.services.Words.HideWordFor7Days(ctx, card.Key); err != nil {
			return "", err
		}
		h.dismiss(ctx, id)
		return "🙈 Скрыто на 7 дней", nil

	case btnHideForever.Unique:
		if err := h.services.Words.HideWordForever(ctx, card.Key); err != nil {
			return "", err
		}
		h.dismiss(ctx, id)
		return "🗑 Скрыто навсегда", nil

	case btnSkip.Unique:
		h.dismiss(ctx, id)
		return "⏭ Пропущено", nil
	}

	return "", fmt.Errorf("unknown card action %q", action)
}

func (h *Handler) dismiss(ctx context.Context, id uuid.UUID) {
	card := h.takeCard(id)
	if card == nil {
		return
	}
	if err := card.Dismiss(ctx); err != nil && !errors.Is(err, domain.ErrCardNotActive) {
		h.logger.Warn("Failed to dismiss card", zap.String("card_id", id.String()), zap.Error(err))
	}
}

// handleCardAction handles the card keyboard
func (h *Handler) handleCardAction(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	id, err := uuid.Parse(cleanCallbackData(callback.Data))
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Неверная карточка"})
	}

	reply, err := h.cardAction(context.Background(), callback.Unique, id)
	if err != nil {
		h.logger.Error("Card action failed",
			zap.String("action", callback.Unique),
			zap.Int64("user_id", c.Sender().ID),
			zap.Error(err),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Произошла ошибка. Попробуйте позже."})
	}
	return c.Respond(&tele.CallbackResponse{Text: reply})
}

// languageNames holds the "переведи на ..." form of a language code
var languageNames = map[string]string{
	"en": "английский",
	"ru": "русский",
	"de": "немецкий",
	"fr": "французский",
	"es": "испанский",
	"it": "итальянский",
	"pt": "португальский",
	"uk": "украинский",
	"tr": "турецкий",
	"ja": "японский",
	"zh": "китайский",
}

// translateTo names the language the answer is expected in
func translateTo(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if name, ok := languageNames[lang]; ok {
		return "на " + name
	}
	if lang == "" {
		return ""
	}
	return "(" + lang + ")"
}

func formatCard(key domain.TranslationEntryKey, info domain.AssessmentInfo) string {
	var sb strings.Builder

	lang, icon := key.TargetLang, "🔤"
	if info.IsReverse {
		lang, icon = key.SourceLang, "🔁"
	}
	sb.WriteString(icon + " Переведи")
	if to := translateTo(lang); to != "" {
		sb.WriteString(" " + to)
	}
	sb.WriteString(":\n\n")

	sb.WriteString(info.Word)
	if info.PartOfSpeech != "" && info.PartOfSpeech != domain.PartOfSpeechUnknown {
		fmt.Fprintf(&sb, " (%s)", info.PartOfSpeech)
	}
	sb.WriteString("\n\nОтветь сообщением.")
	return sb.String()
}

func formatVerdict(v domain.Verdict) string {
	if !v.Accepted {
		return fmt.Sprintf("❌ Неверно.\nПравильный ответ: %s", v.CorrectAnswer)
	}
	if assessment.Normalize(v.Submitted) == assessment.Normalize(v.BestMatch) {
		return "✅ Верно!"
	}
	return fmt.Sprintf("✅ Засчитано, правильно пишется: %s", v.BestMatch)
}
