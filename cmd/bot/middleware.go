package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/lynx/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/request"
	"github.com/gorilla/mux"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// commandProcessor handles a slash command or button interaction.
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
					slog.Any(logging.KeyError, rec),
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

// interactionHandler routes interactions to their processors: slash commands
// by command name, buttons by custom ID. Ticket-creation buttons carry the
// category in their custom ID and share a single processor.
func interactionHandler(a IApp, commands map[string]commandProcessor, buttons map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			name := i.ApplicationCommandData().Name
			processor, ok := commands[name]
			if !ok {
				a.Log().Error("No processor found for command", slog.String("command", name))
				respondInteractionError(a, i)
				return
			}

			if err := processor(a, i); err != nil {
				a.Log().Error(fmt.Sprintf("Error processing command %s", name),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i)
			}
		case discordgo.InteractionMessageComponent:
			customID := i.MessageComponentData().CustomID

			processor, ok := buttons[customID]
			if !ok && strings.HasPrefix(customID, OpenTicketButtonPrefix) {
				processor, ok = createTicketHandler, true
			}
			if !ok {
				a.Log().Error("No processor found for button", slog.String("button", customID))
				respondInteractionError(a, i)
				return
			}

			if err := processor(a, i); err != nil {
				a.Log().Error(fmt.Sprintf("Error processing button %s", customID),
					slog.String(logging.KeyError, err.Error()))
				respondInteractionError(a, i)
			}
		default:
			// Other interaction types are not used.
		}
	}
}

func respondInteractionError(a IApp, i *discordgo.InteractionCreate) {
	if err := respondError(a, i); err != nil {
		a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}
