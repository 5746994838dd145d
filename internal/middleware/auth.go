package middleware

import (
	"context"

	"wordflash/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError       = "Произошла ошибка. Попробуйте позже."
	msgNeedsAccess = "Сначала введи пароль, /start"
)

// AuthMiddleware lets only authorized users through. It guards commands and
// buttons, the password itself is handled by the text handler.
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := c.Sender().ID

			authorized, err := authService.Access(context.Background(), userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send(msgError)
			}

			if !authorized {
				logger.Debug("Rejected unauthorized user", zap.Int64("user_id", userID))
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: msgNeedsAccess})
				}
				return c.Send(msgNeedsAccess)
			}

			return next(c)
		}
	}
}
