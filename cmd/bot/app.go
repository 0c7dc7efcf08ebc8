package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/events"
	"github.com/Jacobbrewer1/warden/pkg/jobs"
	"github.com/Jacobbrewer1/warden/pkg/lifecycle"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/platform"
	"github.com/Jacobbrewer1/warden/pkg/provision"
	"github.com/Jacobbrewer1/warden/pkg/ratelimit"
	"github.com/Jacobbrewer1/warden/pkg/request"
	"github.com/Jacobbrewer1/warden/pkg/retry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// platformCallsPerSecond paces outbound discord calls made through the retry
// runner, below discord's global limit so bursts of provisioning do not trip
// it.
const platformCallsPerSecond = 10

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Lifecycle returns the ticket state machine.
	Lifecycle() *lifecycle.Service

	// Mappings returns the thread mapping cache.
	Mappings() *lifecycle.MappingCache

	// Configs returns the guild configuration data access layer.
	Configs() dataaccess.ConfigDal

	// Categories returns the ticket category data access layer.
	Categories() dataaccess.CategoryDal

	// Provision returns the discord structure provisioner.
	Provision() *provision.Provisioner

	// Locks returns the interaction deduplication lock.
	Locks() dataaccess.LockDal

	// Limiter returns the per-user ticket creation limiter.
	Limiter() *ratelimit.Limiter
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

	// Core ticketing components, built after the configuration has been
	// parsed and the database connected.
	tickets    dataaccess.TicketDal
	configs    dataaccess.ConfigDal
	mappings   dataaccess.MappingDal
	locks      dataaccess.LockDal
	categories dataaccess.CategoryDal

	svc      *lifecycle.Service
	prov     *provision.Provisioner
	mapCache *lifecycle.MappingCache
	limiter  *ratelimit.Limiter
	notifier *events.Notifier

	reconciler *jobs.Reconciler
	autoCloser *jobs.AutoCloser
	refresher  *jobs.Refresher

	// stopJobs cancels the background jobs on shutdown.
	stopJobs context.CancelFunc
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

	a.buildCore()

	if err := a.locks.EnsureIndexes(context.Background()); err != nil {
		return fmt.Errorf("error ensuring lock indexes: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.warmChannelCaches()
	a.startJobs()

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listerner for shutdown signal.
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

// buildCore wires the ticketing core. The data access layers capture the
// database connection, so this must run after config.Parse.
func (a *App) buildCore() {
	a.tickets = dataaccess.NewTicketDal(a.Logger)
	a.configs = dataaccess.NewConfigDal(a.Logger)
	a.mappings = dataaccess.NewMappingDal(a.Logger)
	a.locks = dataaccess.NewLockDal(a.Logger)
	a.categories = dataaccess.NewCategoryDal(a.Logger)

	audit := dataaccess.NewAuditDal(a.Logger)
	resolutions := dataaccess.NewResolutionDal(a.Logger)

	p := platform.NewDiscord(a.s)
	runner := retry.NewRunner(a.Logger, platformCallsPerSecond)
	a.prov = provision.New(a.Logger, p, runner, provision.NewCache(), a.configs)

	a.mapCache = lifecycle.NewMappingCache()
	a.notifier = events.NewNotifier(a.Logger)
	a.notifier.Subscribe(func(e events.Event) {
		a.Debug("Ticket event",
			slog.String("type", string(e.Type)),
			slog.String(logging.KeyGuild, e.Ticket.GuildID),
			slog.String(logging.KeyTicket, fmt.Sprintf("%d", e.Ticket.ID)),
		)
	})

	a.svc = lifecycle.NewService(a.Logger, a.tickets, a.categories, a.mappings, audit,
		resolutions, a.configs, a.prov, a.notifier, a.mapCache)

	a.limiter = ratelimit.NewLimiter(config.TicketsPerHour, ratelimit.DefaultWindow)

	a.reconciler = jobs.NewReconciler(a.Logger, a.tickets, a.svc, p, config.ReconcileInterval)
	a.autoCloser = jobs.NewAutoCloser(a.Logger, a.configs, a.tickets, a.svc, a.prov, config.AutoCloseInterval)
	a.refresher = jobs.NewRefresher(a.Logger, a.mapCache, a.mappings, config.MappingRefreshInterval)
}

// warmChannelCaches primes the provisioner's structure cache for every guild
// so a restart does not recreate categories that already exist.
func (a *App) warmChannelCaches() {
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		a.Warn("Error getting guilds to warm channel caches", slog.String(logging.KeyError, err.Error()))
		return
	}

	for _, g := range guilds {
		if err := a.prov.CacheChannelStructure(context.Background(), g.ID); err != nil {
			a.Warn("Error warming channel cache",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func (a *App) startJobs() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopJobs = cancel

	go a.reconciler.Run(ctx)
	go a.autoCloser.Run(ctx)
	go a.refresher.Run(ctx)
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Stop the background jobs. In-flight sweeps complete on a detached
	// context.
	if a.stopJobs != nil {
		a.stopJobs()
	}

	if a.notifier != nil {
		a.notifier.Close()
	}

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
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
		// Create event notifier. This is used to runServer events. It is buffered to prevent blocking.
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

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
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

	// Messages posted in ticket threads refresh the ticket activity clock.
	a.s.AddHandler(threadActivityHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandController{
			setupCmd.Name:  setupCmdController,
			ticketCmd.Name: ticketCmdController,
		},
		// Button Controllers
		map[string]commandProcessor{
			ActionOpen:    openTicketModalHandler,
			ActionClaim:   claimTicketHandler,
			ActionClose:   closeTicketHandler,
			ActionReopen:  reopenTicketHandler,
			ActionPending: pendingTicketHandler,
		},
		// Modal Controllers
		map[string]commandProcessor{
			ActionCreate: createTicketHandler,
		}))
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
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		if err := a.registerGuildCommands(g.ID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) registerGuildCommands(guildID string) error {
	// Register the setup command.
	if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, guildID, setupCmd); err != nil {
		return fmt.Errorf("error creating setup command for guild %s: %w", guildID, err)
	}

	// Register the ticket command.
	if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, guildID, ticketCmd); err != nil {
		return fmt.Errorf("error creating ticket command for guild %s: %w", guildID, err)
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Delete slash commands for each guild.
	for _, guild := range guilds {
		// Delete the setup command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, setupCmd.ID); err != nil {
			return fmt.Errorf("error deleting setup command for guild %s: %w", guild.ID, err)
		}

		// Delete the ticket command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, ticketCmd.ID); err != nil {
			return fmt.Errorf("error deleting command for guild %s: %w", guild.ID, err)
		}
	}
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Lifecycle() *lifecycle.Service {
	return a.svc
}

func (a *App) Mappings() *lifecycle.MappingCache {
	return a.mapCache
}

func (a *App) Configs() dataaccess.ConfigDal {
	return a.configs
}

func (a *App) Locks() dataaccess.LockDal {
	return a.locks
}

func (a *App) Categories() dataaccess.CategoryDal {
	return a.categories
}

func (a *App) Provision() *provision.Provisioner {
	return a.prov
}

func (a *App) Limiter() *ratelimit.Limiter {
	return a.limiter
}
