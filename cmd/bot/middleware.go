package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// commandController resolves a slash command interaction to its processor.
type commandController func(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error)

// commandProcessor handles a single interaction.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler is the single entry point for every inbound
// interaction. It claims the interaction against the deduplication lock
// before any handler runs, so a redelivered interaction is dropped instead
// of acting twice, then routes by command name or parsed custom ID.
func interactionHandler(a IApp,
	controllers map[string]commandController,
	buttons map[string]commandProcessor,
	modals map[string]commandProcessor,
) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(a, i, controllers)
		case discordgo.InteractionMessageComponent:
			handleComponent(a, i, buttons)
		case discordgo.InteractionModalSubmit:
			handleModal(a, i, modals)
		}
	}
}

func handleSlashCommand(a IApp, i *discordgo.InteractionCreate, controllers map[string]commandController) {
	name := i.ApplicationCommandData().Name
	a.Log().Debug("Handling interaction " + name)

	if !claimInteraction(a, i, name) {
		return
	}

	t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(name))
	defer t.ObserveDuration()

	controller, ok := controllers[name]
	if !ok {
		a.Log().Error("No controller found for command", slog.String("command", name))
		respondInteractionError(a, i)
		return
	}

	processor, err := controller(a, i)
	if err != nil {
		a.Log().Error(fmt.Sprintf("Error getting processor for command %s", name),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i)
		return
	}
	if processor == nil {
		// The controller already responded, such as a failed permission
		// check.
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing command %s", name),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i)
	}
}

func handleComponent(a IApp, i *discordgo.InteractionCreate, buttons map[string]commandProcessor) {
	cid, err := ParseCustomID(i.MessageComponentData().CustomID)
	if err != nil {
		// Not a ticket control; some other component on the message.
		return
	}
	a.Log().Debug("Handling component interaction", slog.String("action", cid.Action))

	if !claimInteraction(a, i, cid.Action) {
		return
	}

	t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(cid.Action))
	defer t.ObserveDuration()

	processor, ok := buttons[cid.Action]
	if !ok {
		a.Log().Error("No processor found for component", slog.String("action", cid.Action))
		respondInteractionError(a, i)
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing component %s", cid.Action),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i)
	}
}

func handleModal(a IApp, i *discordgo.InteractionCreate, modals map[string]commandProcessor) {
	cid, err := ParseCustomID(i.ModalSubmitData().CustomID)
	if err != nil {
		return
	}
	a.Log().Debug("Handling modal submit", slog.String("action", cid.Action))

	if !claimInteraction(a, i, cid.Action) {
		return
	}

	t := prometheus.NewTimer(monitoring.DiscordCommandDuration.WithLabelValues(cid.Action))
	defer t.ObserveDuration()

	processor, ok := modals[cid.Action]
	if !ok {
		a.Log().Error("No processor found for modal", slog.String("action", cid.Action))
		respondInteractionError(a, i)
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing modal %s", cid.Action),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i)
	}
}

// claimInteraction claims the interaction against the deduplication lock.
// Discord redelivers interactions it does not see acknowledged in time; a
// redelivery loses the claim and is dropped without a response, since the
// first delivery already answered it.
func claimInteraction(a IApp, i *discordgo.InteractionCreate, action string) bool {
	if a.Locks().TryClaim(contextOf(i), i.ID, interactionUser(i), action) {
		return true
	}

	a.Log().Info("Suppressed duplicate interaction",
		slog.String("interaction_id", i.ID),
		slog.String("action", action),
	)
	monitoring.TotalDuplicateInteractions.Inc()
	return false
}
