package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomcall/roomcall-core/internal/room"
)

// Ownership messages. The delete wording is part of the public API
// contract and must not be reworded.
const (
	msgNotOwnerDelete = "Either you are not logged in or you are not the owner of this room to delete"
	msgNotOwnerUpdate = "Either you are not logged in or you are not the owner of this room to update"
)

// roomRequest is the request body for creating or updating a room.
type roomRequest struct {
	Title string `json:"title"`
}

// handleListRooms returns all rooms, newest first. An optional ?search=
// query narrows the list to titles containing the term, case-insensitively.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	rooms, err := s.rooms.List(r.Context(), search)
	if err != nil {
		s.logger.Error("listing rooms", "error", err)
		writeInternalError(w, "failed to list rooms")
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rm, err := s.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		s.logger.Error("loading room", "error", err, "room_id", id)
		writeInternalError(w, "failed to load room")
		return
	}

	writeJSON(w, http.StatusOK, rm)
}

// handleCreateRoom creates a new room owned by the session user.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !room.ValidTitle(req.Title) {
		writeValidationError(w, "title is required and must be at most 255 characters")
		return
	}

	rm := &room.Room{
		Title:         req.Title,
		OwnerID:       user.ID,
		OwnerUsername: user.Username,
	}
	if err := s.rooms.Create(r.Context(), rm); err != nil {
		s.logger.Error("creating room", "error", err, "user_id", user.ID)
		writeInternalError(w, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, rm)
}

// handleUpdateRoom renames a room. Only the owner may update.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := chi.URLParam(r, "id")

	rm, err := s.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		s.logger.Error("loading room", "error", err, "room_id", id)
		writeInternalError(w, "failed to update room")
		return
	}

	if rm.OwnerID != user.ID {
		writeUnauthorized(w, msgNotOwnerUpdate)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !room.ValidTitle(req.Title) {
		writeValidationError(w, "title is required and must be at most 255 characters")
		return
	}

	rm.Title = req.Title
	if err := s.rooms.Update(r.Context(), rm); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		s.logger.Error("updating room", "error", err, "room_id", id)
		writeInternalError(w, "failed to update room")
		return
	}

	writeJSON(w, http.StatusOK, rm)
}

// handleDeleteRoom removes a room. Only the owner may delete; a valid
// session belonging to someone else is an authorization failure, not a
// missing-session failure.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := chi.URLParam(r, "id")

	rm, err := s.rooms.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		s.logger.Error("loading room", "error", err, "room_id", id)
		writeInternalError(w, "failed to delete room")
		return
	}

	if rm.OwnerID != user.ID {
		writeUnauthorized(w, msgNotOwnerDelete)
		return
	}

	if err := s.rooms.Delete(r.Context(), id); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		s.logger.Error("deleting room", "error", err, "room_id", id)
		writeInternalError(w, "failed to delete room")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
