package api

import (
	"net/http"

	"github.com/andy/rapport/internal/domain"
	"github.com/go-chi/render"
	"github.com/samber/lo"
)

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.svc.Clients.List(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, lo.Map(clients, func(c *domain.Client, _ int) clientResponse {
		return newClientResponse(c)
	}))
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	req := &clientRequest{}
	if err := bind(r, req); err != nil {
		s.renderError(w, r, err)
		return
	}
	client, err := s.svc.Clients.Create(r.Context(), req.ClientInput)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newClientResponse(client))
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	client, err := s.svc.Clients.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newClientResponse(client))
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	req := &clientRequest{}
	if err := bind(r, req); err != nil {
		s.renderError(w, r, err)
		return
	}
	client, err := s.svc.Clients.Update(r.Context(), id, req.ClientInput)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newClientResponse(client))
}

func (s *Server) listLogins(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	logins, err := s.svc.Clients.ListLogins(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, lo.Map(logins, func(l *domain.DeviceLogin, _ int) loginResponse {
		return newLoginResponse(l)
	}))
}

func (s *Server) createLogin(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	req := &loginRequest{}
	if err := bind(r, req); err != nil {
		s.renderError(w, r, err)
		return
	}
	login, err := s.svc.Clients.AddLogin(r.Context(), id, req.LoginInput)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newLoginResponse(login))
}
