package handler

import (
	"context"
	"fmt"
	"strings"

	"wordflash/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	ctx := context.Background()

	authorized, err := h.services.Auth.Access(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	// Anything an unauthorized user sends is a password attempt
	if !authorized {
		ok, err := h.services.Auth.Login(ctx, userID, text)
		if err != nil {
			h.logger.Error("Failed to authorize user", zap.Error(err))
			return c.Send(msgError)
		}
		if !ok {
			return c.Send("Неверный пароль")
		}

		h.ResetState(userID)
		return c.Send("✅ Доступ разрешён!\n\n"+msgMainMenu, mainMenuMarkup())
	}

	reply, markup := h.processText(ctx, userID, text)
	if markup != nil {
		return c.Send(reply, markup)
	}
	return c.Send(reply)
}

// processText runs the state machine of an authorized user
func (h *Handler) processText(ctx context.Context, userID int64, text string) (string, *tele.ReplyMarkup) {
	state := h.GetState(userID)

	switch state.State {
	case domain.StateWaitingAnswer:
		return h.answer(ctx, userID, text), nil

	case domain.StateWaitingImport:
		h.ResetState(userID)
		return h.importWords(ctx, userID, text), nil

	case domain.StateWaitingTranslation:
		// User sent translation, save the pair
		word := state.CurrentWord
		if err := h.services.Words.SaveWordPair(ctx, word, text); err != nil {
			h.logger.Error("Failed to save word pair",
				zap.Error(err),
				zap.Int64("user_id", userID),
			)
			return "Не удалось сохранить слово. Попробуйте ещё раз.", nil
		}

		h.logger.Info("Word pair saved",
			zap.Int64("user_id", userID),
			zap.String("word", word),
			zap.String("translation", text),
		)

		// Reset to waiting for next word
		h.SetState(userID, &domain.StateData{State: domain.StateWaitingWord})
		return "✅ Сохранено!\n\nМожешь отправить следующее слово или вернуться в /start", nil

	default:
		// Idle or waiting for a word - start word input flow
		cancelMarkup := &tele.ReplyMarkup{}
		cancelMarkup.Inline(cancelMarkup.Row(btnCancel))

		h.SetState(userID, &domain.StateData{
			State:       domain.StateWaitingTranslation,
			CurrentWord: text,
		})
		return "Жду перевод (несколько через запятую, синонимы через /)", cancelMarkup
	}
}

// handleImport handles /import, the word list may follow the command or come next
func (h *Handler) handleImport(c tele.Context) error {
	userID := c.Sender().ID
	payload := commandPayload(c.Text())

	if payload == "" {
		h.SetState(userID, &domain.StateData{State: domain.StateWaitingImport})
		return c.Send("Отправь список слов, по одному на строку: word - перевод, перевод")
	}
	return c.Send(h.importWords(context.Background(), userID, payload))
}

func (h *Handler) importWords(ctx context.Context, userID int64, text string) string {
	n, err := h.services.Words.Import(ctx, text)
	if err != nil {
		h.logger.Error("Import failed",
			zap.Int64("user_id", userID),
			zap.Int("imported", n),
			zap.Error(err),
		)
		return fmt.Sprintf("Импорт прерван после %d слов: ошибка сохранения.", n)
	}

	h.logger.Info("Words imported", zap.Int64("user_id", userID), zap.Int("count", n))
	return fmt.Sprintf("📥 Импортировано слов: %d", n)
}
