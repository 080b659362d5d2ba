package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/lynx/cmd/bot/config"
	"github.com/Jacobbrewer1/lynx/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/request"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppName is the name of the application.
const AppName = config.AppName

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the logger.
	Log() *slog.Logger

	// Manager returns the ticket lifecycle manager.
	Manager() *ticketing.Manager

	// TicketConfig returns the ticketing configuration.
	TicketConfig() *ticketing.Config
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// ticketCfg is the ticketing configuration.
	ticketCfg *ticketing.Config

	// dal is the ticket store.
	dal dataaccess.ITicketDal

	// manager is the ticket lifecycle manager.
	manager *ticketing.Manager

	// dispatcher carries lifecycle events to the notifier.
	dispatcher *ticketing.Dispatcher
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// The ticketing stack needs the bot's own user ID, which is only known
	// once the session is open.
	if err := a.setupTicketing(); err != nil {
		return fmt.Errorf("error setting up ticketing: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

// setupTicketing wires the ticket store, the lifecycle manager and the
// notification pipeline.
func (a *App) setupTicketing() error {
	a.ticketCfg = &ticketing.Config{
		GuildID:          config.GuildId,
		SupportRoleID:    config.SupportRoleId,
		AdminRoleID:      config.AdminRoleId,
		ParentCategoryID: config.TicketCategoryId,
		LogChannelID:     config.TicketLogsChannelId,
		BotUserID:        a.s.State.User.ID,
	}

	a.dal = dataaccess.NewTicketDal(a.Log())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.dal.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("error ensuring ticket indexes: %w", err)
	}

	gw := newDiscordGateway(a.s)

	a.dispatcher = ticketing.NewDispatcher(a.Log(), 64)
	notifier := ticketing.NewNotifier(a.Log(), a.ticketCfg, gw)
	notifier.Register(a.dispatcher)
	go a.dispatcher.Run()

	prov := ticketing.NewProvisioner(a.Log(), a.ticketCfg, gw)
	a.manager = ticketing.NewManager(a.Log(), a.ticketCfg, a.dal, gw, prov, a.dispatcher, ticketing.NewScheduler())
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Drain queued lifecycle events before dropping the session.
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to observe events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// The administrative ticket API.
	a.setupApiRoutes()

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Log())

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Log())
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash controllers
		map[string]commandProcessor{
			panelCmd.Name: panelCmdHandler,
		},
		// Button controllers
		map[string]commandProcessor{
			ClaimTicketButtonID: claimTicketHandler,
			CloseTicketButtonID: closeTicketHandler,
		}))

	// Conversation capture for ticket surfaces.
	a.s.AddHandler(messageHandler(a))

	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, config.GuildId, panelCmd); err != nil {
		return fmt.Errorf("error creating panel command for guild %s: %w", config.GuildId, err)
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	if err := a.s.ApplicationCommandDelete(config.ApplicationId, config.GuildId, panelCmd.ID); err != nil {
		return fmt.Errorf("error deleting panel command for guild %s: %w", config.GuildId, err)
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Manager() *ticketing.Manager {
	return a.manager
}

func (a *App) TicketConfig() *ticketing.Config {
	return a.ticketCfg
}
