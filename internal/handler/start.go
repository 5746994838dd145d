package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError          = "Произошла ошибка. Попробуйте позже."
	msgPasswordPrompt = "Привет! Это закрытый бот для изучения слов. Введи пароль:"
	msgMainMenu       = "🏠 Главное меню\n\nОтправь слово, чтобы добавить его в словарь.\nКарточки будут приходить сами."
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	authorized, err := h.services.Auth.Access(context.Background(), userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	h.ResetState(userID)
	if !authorized {
		return c.Send(msgPasswordPrompt)
	}

	return c.Send(msgMainMenu, mainMenuMarkup())
}
