package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/lynx/cmd/bot/config"
	"github.com/Jacobbrewer1/lynx/pkg/dataaccess"
	"github.com/Jacobbrewer1/lynx/pkg/entities"
	"github.com/Jacobbrewer1/lynx/pkg/logging"
	"github.com/Jacobbrewer1/lynx/pkg/request"
	"github.com/Jacobbrewer1/lynx/pkg/ticketing"
	"github.com/gorilla/mux"
)

const (
	// PathApiTickets is the ticket collection path.
	PathApiTickets = "/api/tickets"

	// PathApiTicket is the single ticket path.
	PathApiTicket = "/api/tickets/{id}"

	// PathApiTicketMessage is the staff message path.
	PathApiTicketMessage = "/api/tickets/{id}/message"

	// PathApiUsers is the staff roster path.
	PathApiUsers = "/api/users"
)

func (a *App) setupApiRoutes() {
	a.r.HandleFunc(PathApiTickets, middlewareHttp(a.listTicketsApi(), a)).Methods(http.MethodGet)
	a.r.HandleFunc(PathApiTicket, middlewareHttp(a.getTicketApi(), a)).Methods(http.MethodGet)
	a.r.HandleFunc(PathApiTicket, middlewareHttp(a.patchTicketApi(), a)).Methods(http.MethodPatch)
	a.r.HandleFunc(PathApiTicketMessage, middlewareHttp(a.postTicketMessageApi(), a)).Methods(http.MethodPost)
	a.r.HandleFunc(PathApiUsers, middlewareHttp(a.listUsersApi(), a)).Methods(http.MethodGet)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}

// apiError maps lifecycle errors onto status codes. Anything unmapped is an
// internal error; the detail stays in the logs.
func (a *App) apiError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ticketing.ErrTicketNotFound):
		a.writeJSON(w, http.StatusNotFound, request.NewMessage("ticket not found"))
	case errors.Is(err, ticketing.ErrInvalidPatch):
		a.writeJSON(w, http.StatusBadRequest, request.NewMessage("invalid ticket patch"))
	case errors.Is(err, ticketing.ErrAlreadyClosed):
		a.writeJSON(w, http.StatusConflict, request.NewMessage("ticket already closed"))
	default:
		a.Log().Error("Error handling api request", slog.String(logging.KeyError, err.Error()))
		a.writeJSON(w, http.StatusInternalServerError, request.NewMessage(request.ErrInternalServer.Error()))
	}
}

func (a *App) listTicketsApi() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := new(dataaccess.TicketFilter)

		if status := r.URL.Query().Get("status"); status != "" {
			s := entities.TicketStatus(status)
			if !s.Valid() {
				a.writeJSON(w, http.StatusBadRequest, request.NewMessage(fmt.Sprintf("unknown status %q", status)))
				return
			}
			filter.Status = s
		}
		filter.AssignedStaff = r.URL.Query().Get("assigned_staff")
		filter.Unassigned = r.URL.Query().Get("unassigned") == "true"

		tickets, err := a.Manager().List(r.Context(), filter)
		if err != nil {
			a.apiError(w, err)
			return
		}

		a.writeJSON(w, http.StatusOK, tickets)
	}
}

func (a *App) getTicketApi() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		ticket, err := a.Manager().Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			a.apiError(w, err)
			return
		}

		a.writeJSON(w, http.StatusOK, ticket)
	}
}

// patchTicketRequest is the wire shape of an administrative ticket update.
type patchTicketRequest struct {
	Status        *entities.TicketStatus   `json:"status,omitempty"`
	Priority      *entities.TicketPriority `json:"priority,omitempty"`
	AssignedStaff *string                  `json:"assigned_staff,omitempty"`
	AssignedTeam  *string                  `json:"assigned_team,omitempty"`
	Tags          []string                 `json:"tags,omitempty"`
	ActorID       string                   `json:"actor_id,omitempty"`
}

func (a *App) patchTicketApi() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		body := new(patchTicketRequest)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			a.writeJSON(w, http.StatusBadRequest, request.NewMessage("invalid request body"))
			return
		}

		actor := body.ActorID
		if actor == "" {
			actor = "api"
		}

		ticket, err := a.Manager().Patch(r.Context(), mux.Vars(r)["id"], actor, &ticketing.TicketPatch{
			Status:        body.Status,
			Priority:      body.Priority,
			AssignedStaff: body.AssignedStaff,
			AssignedTeam:  body.AssignedTeam,
			Tags:          body.Tags,
		})
		if err != nil {
			a.apiError(w, err)
			return
		}

		a.writeJSON(w, http.StatusOK, ticket)
	}
}

// postTicketMessageRequest is the wire shape of a staff message.
type postTicketMessageRequest struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

func (a *App) postTicketMessageApi() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		body := new(postTicketMessageRequest)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			a.writeJSON(w, http.StatusBadRequest, request.NewMessage("invalid request body"))
			return
		}
		if body.AuthorID == "" || body.Content == "" {
			a.writeJSON(w, http.StatusBadRequest, request.NewMessage("author_id and content are required"))
			return
		}

		ticket, err := a.Manager().PostStaffMessage(r.Context(), mux.Vars(r)["id"], body.AuthorID, body.AuthorName, body.Content)
		if err != nil {
			a.apiError(w, err)
			return
		}

		a.writeJSON(w, http.StatusOK, ticket)
	}
}

// userResponse is a staff roster entry.
type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (a *App) listUsersApi() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := a.Session().GuildMembers(config.GuildId, "", 1000)
		if err != nil {
			a.apiError(w, fmt.Errorf("error getting guild members: %w", err))
			return
		}

		staff := make([]userResponse, 0)
		for _, m := range members {
			if m.User == nil {
				continue
			}
			if !ticketing.IsStaff(a.TicketConfig(), &ticketing.Member{
				UserID:      m.User.ID,
				Username:    m.User.Username,
				Roles:       m.Roles,
				Permissions: m.Permissions,
			}) {
				continue
			}
			staff = append(staff, userResponse{
				ID:       m.User.ID,
				Username: m.User.Username,
				Roles:    m.Roles,
			})
		}

		a.writeJSON(w, http.StatusOK, staff)
	}
}
