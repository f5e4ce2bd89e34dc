package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pavel-fokin/media-catalog/internal/catalog"
)

type nameRequest struct {
	Name string `json:"name"`
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type playlistRequest struct {
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

type playlistItemRequest struct {
	ContentID int64 `json:"contentId"`
}

// respond writes v, or the error when err is set. Unclassified errors are logged.
func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		if !clientError(err) {
			slog.Error("Catalog request failed", "error", err)
		}
		writeError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, v)
}

func created(w http.ResponseWriter, location string, v any) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, v)
}

func createCreator(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		creator, err := svc.CreateCreator(r.Context(), req.Name)
		if err != nil {
			respond(w, 0, nil, err)
			return
		}
		created(w, fmt.Sprintf("/api/criadores/%d", creator.ID), creator)
	}
}

func listCreators(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creators, err := svc.ListCreators(r.Context())
		respond(w, http.StatusOK, creators, err)
	}
}

func getCreator(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		creator, err := svc.GetCreator(r.Context(), id)
		respond(w, http.StatusOK, creator, err)
	}
}

func updateCreator(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var req nameRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		creator, err := svc.UpdateCreator(r.Context(), id, req.Name)
		respond(w, http.StatusOK, creator, err)
	}
}

func deleteCreator(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusNoContent, nil, svc.DeleteCreator(r.Context(), id))
	}
}

func createContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req catalog.ContentInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		content, err := svc.CreateContent(r.Context(), req)
		if err != nil {
			respond(w, 0, nil, err)
			return
		}
		created(w, fmt.Sprintf("/api/conteudos/%d", content.ID), content)
	}
}

func listContents(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contents, err := svc.ListContents(r.Context())
		respond(w, http.StatusOK, contents, err)
	}
}

func getContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		content, err := svc.GetContent(r.Context(), id)
		respond(w, http.StatusOK, content, err)
	}
}

func updateContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var req catalog.ContentInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		content, err := svc.UpdateContent(r.Context(), id, req)
		respond(w, http.StatusOK, content, err)
	}
}

func deleteContent(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusNoContent, nil, svc.DeleteContent(r.Context(), id))
	}
}

func createUser(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		user, err := svc.CreateUser(r.Context(), req.Name, req.Email)
		if err != nil {
			respond(w, 0, nil, err)
			return
		}
		created(w, fmt.Sprintf("/api/usuarios/%d", user.ID), user)
	}
}

func listUsers(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		respond(w, http.StatusOK, users, err)
	}
}

func getUser(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		user, err := svc.GetUser(r.Context(), id)
		respond(w, http.StatusOK, user, err)
	}
}

func deleteUser(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusNoContent, nil, svc.DeleteUser(r.Context(), id))
	}
}

func createPlaylist(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playlistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		playlist, err := svc.CreatePlaylist(r.Context(), req.Name, req.UserID)
		if err != nil {
			respond(w, 0, nil, err)
			return
		}
		created(w, fmt.Sprintf("/api/playlists/%d", playlist.ID), playlist)
	}
}

func listPlaylists(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playlists, err := svc.ListPlaylists(r.Context())
		respond(w, http.StatusOK, playlists, err)
	}
}

func getPlaylist(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		playlist, err := svc.GetPlaylist(r.Context(), id)
		respond(w, http.StatusOK, playlist, err)
	}
}

func renamePlaylist(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var req nameRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		playlist, err := svc.RenamePlaylist(r.Context(), id, req.Name)
		respond(w, http.StatusOK, playlist, err)
	}
}

func deletePlaylist(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusNoContent, nil, svc.DeletePlaylist(r.Context(), id))
	}
}

func addPlaylistItem(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		var req playlistItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		playlist, err := svc.AddPlaylistItem(r.Context(), id, req.ContentID)
		respond(w, http.StatusOK, playlist, err)
	}
}

func removePlaylistItem(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, err)
			return
		}
		contentID, err := pathID(r, "contentId")
		if err != nil {
			writeError(w, err)
			return
		}
		respond(w, http.StatusNoContent, nil, svc.RemovePlaylistItem(r.Context(), id, contentID))
	}
}
