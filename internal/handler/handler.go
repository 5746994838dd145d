package handler

import (
	"sync"

	"wordflash/internal/domain"
	"wordflash/internal/middleware"
	"wordflash/internal/pause"
	"wordflash/internal/scheduler"
	"wordflash/internal/service"
	"wordflash/internal/settings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Sender delivers bot messages, *tele.Bot satisfies it
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// StatusProvider reports the card scheduler state
type StatusProvider interface {
	Status() scheduler.Status
}

// Services groups the application services used by the bot
type Services struct {
	Auth     *service.AuthService
	Words    *service.WordService
	Learning *service.LearningService
	Priority *service.PriorityService
	Stats    *service.StatsService
}

// Handler manages all bot interactions
type Handler struct {
	bot      *tele.Bot
	sender   Sender
	services Services
	settings *settings.Store
	pause    *pause.Coordinator
	status   StatusProvider
	logger   *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	// Card currently shown to the users
	card    *scheduler.Card
	cardMux sync.Mutex

	// Serializes /pause and /resume so user pauses stay balanced
	pauseMux sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	services Services,
	store *settings.Store,
	coordinator *pause.Coordinator,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		bot:      bot,
		services: services,
		settings: store,
		pause:    coordinator,
		logger:   logger,
		states:   make(map[int64]*domain.StateData),
	}
	if bot != nil {
		h.sender = bot
	}
	return h
}

// AttachScheduler lets commands report the scheduler state
func (h *Handler) AttachScheduler(status StatusProvider) {
	h.status = status
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Open to everyone, text carries the password of new users
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle(tele.OnText, h.handleText)

	authorized := h.bot.Group()
	authorized.Use(middleware.AuthMiddleware(h.services.Auth, h.logger))

	// Commands
	authorized.Handle("/stats", h.handleStats)
	authorized.Handle("/pause", h.handlePause)
	authorized.Handle("/resume", h.handleResume)
	authorized.Handle("/priority", h.handlePriority)
	authorized.Handle("/import", h.handleImport)
	authorized.Handle("/frequency", h.handleFrequency)
	authorized.Handle("/promote", h.handlePromote)
	authorized.Handle("/demote", h.handleDemote)

	// Callback queries (inline buttons)
	authorized.Handle(&btnStats, h.handleStats)
	authorized.Handle(&btnPause, h.handlePause)
	authorized.Handle(&btnResume, h.handleResume)
	authorized.Handle(&btnCancel, h.handleCancel)
	authorized.Handle(&btnSkip, h.handleCardAction)
	authorized.Handle(&btnFavorite, h.handleCardAction)
	authorized.Handle(&btnHide, h.handleCardAction)
	authorized.Handle(&btnHideForever, h.handleCardAction)

	// Generic callback handler for dynamic data
	authorized.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

// Inline keyboard buttons
var (
	btnStats = tele.Btn{
		Unique: "stats",
		Text:   "📊 Статистика",
	}
	btnPause = tele.Btn{
		Unique: "pause",
		Text:   "⏸ Пауза",
	}
	btnResume = tele.Btn{
		Unique: "resume",
		Text:   "▶️ Продолжить",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Отменить",
	}
	btnSkip = tele.Btn{
		Unique: "card_skip",
		Text:   "⏭ Пропустить",
	}
	btnFavorite = tele.Btn{
		Unique: "card_fav",
		Text:   "⭐ В избранное",
	}
	btnHide = tele.Btn{
		Unique: "card_hide",
		Text:   "🙈 Скрыть на 7 дней",
	}
	btnHideForever = tele.Btn{
		Unique: "card_hide_forever",
		Text:   "🗑 Скрыть навсегда",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnStats),
		menu.Row(btnPause, btnResume),
	)
	return menu
}

// cardMarkup returns the card keyboard, the card id travels as data
func cardMarkup(card *scheduler.Card) *tele.ReplyMarkup {
	id := card.ID.String()
	menu := &tele.ReplyMarkup{}

	skip, fav, hide, forever := btnSkip, btnFavorite, btnHide, btnHideForever
	skip.Data, fav.Data, hide.Data, forever.Data = id, id, id, id

	menu.Inline(
		menu.Row(skip, fav),
		menu.Row(hide, forever),
	)
	return menu
}
