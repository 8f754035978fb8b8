package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lox/pokeropoly/internal/protocol"
	"github.com/lox/pokeropoly/internal/store"
)

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws/{room}", s.handleWebSocket)

	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", s.handleWaitingRooms)
	mux.HandleFunc("GET /api/rooms/{id}", s.handleRoom)
	mux.HandleFunc("GET /api/rooms/{id}/players", s.handlePlayers)
	mux.HandleFunc("GET /api/rooms/{id}/stats", s.handleStats)
	mux.HandleFunc("POST /api/rooms/{id}/ready", s.handleSetReady)
	mux.HandleFunc("POST /api/rooms/{id}/start", s.handleStartGame)
	mux.HandleFunc("POST /api/rooms/code/{code}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/code/{code}/leave", s.handleLeaveRoom)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.identify(w, r, &req.HostUserID) {
		return
	}
	if req.MaxPlayers == 0 {
		req.MaxPlayers = store.MaxSeats
	}
	room, err := s.store.CreateRoom(r.Context(), req.HostUserID, req.MaxPlayers)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("Room created", "room", room.ID, "code", room.RoomCode, "host", room.HostUserID)
	s.respond(w, http.StatusCreated, room)
}

func (s *Server) handleWaitingRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.WaitingRooms(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if rooms == nil {
		rooms = []protocol.Room{}
	}
	s.respond(w, http.StatusOK, rooms)
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.store.Room(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, room)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.Players(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if players == nil {
		players = []protocol.Player{}
	}
	s.respond(w, http.StatusOK, players)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.hub.Stats(r.PathValue("id")))
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.identify(w, r, &req.UserID) {
		return
	}
	room, player, err := s.store.JoinRoom(r.Context(), r.PathValue("code"), req.UserID, req.PlayerName)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("Player joined", "room", room.ID, "user", player.UserID, "index", player.PlayerIndex)
	s.respond(w, http.StatusOK, protocol.JoinRoomResponse{Room: room, Player: player})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.LeaveRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.identify(w, r, &req.UserID) {
		return
	}
	if err := s.store.LeaveRoom(r.Context(), r.PathValue("code"), req.UserID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetReady(w http.ResponseWriter, r *http.Request) {
	var req protocol.SetReadyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.identify(w, r, &req.UserID) {
		return
	}
	if err := s.store.SetReady(r.Context(), r.PathValue("id"), req.UserID, req.Ready); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartGameRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.identify(w, r, &req.HostUserID) {
		return
	}
	room, err := s.store.StartGame(r.Context(), r.PathValue("id"), req.HostUserID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("Game started", "room", room.ID, "players", room.CurrentPlayers)
	s.respond(w, http.StatusOK, room)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, protocol.Error{Code: "bad_request", Message: err.Error()})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

// fail maps store errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	s.respond(w, status, protocol.Error{Code: code, Message: err.Error()})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found"
	case errors.Is(err, store.ErrPlayerNotFound):
		return http.StatusNotFound, "player_not_found"
	case errors.Is(err, store.ErrRoomFull):
		return http.StatusConflict, "room_full"
	case errors.Is(err, store.ErrGameStarted):
		return http.StatusConflict, "game_started"
	case errors.Is(err, store.ErrNotHost):
		return http.StatusForbidden, "not_host"
	case errors.Is(err, store.ErrNotEnoughPlayers):
		return http.StatusConflict, "not_enough_players"
	case errors.Is(err, store.ErrInvalidMaxPlayers), errors.Is(err, store.ErrInvalidUser):
		return http.StatusBadRequest, "invalid_request"
	}
	return http.StatusInternalServerError, "internal"
}
