// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"corpsite/internal/models"
)

// MessagesList returns contact messages. Query: view (inbox, unread,
// archived; default inbox), limit, offset.
func (a *Admin) MessagesList(w http.ResponseWriter, r *http.Request) {
	var f models.MessageFilter
	switch view := r.URL.Query().Get("view"); view {
	case "", "inbox":
	case "unread":
		f.Unread = true
	case "archived":
		f.Archived = true
	default:
		fail(w, r, "list messages", invalid("view", "unknown view %q", view))
		return
	}
	f.Limit, f.Offset = pageParams(r)

	msgs, total, err := a.Messages.List(r.Context(), f)
	if err != nil {
		fail(w, r, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, newList(msgs, total))
}

// MessagesGet returns one message and marks it read.
func (a *Admin) MessagesGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "get message", err)
		return
	}
	m, err := a.Messages.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "get message", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	if !m.IsRead {
		if err := a.Messages.SetRead(r.Context(), id, true); err != nil {
			fail(w, r, "mark message read", err)
			return
		}
		m.IsRead = true
	}
	writeJSON(w, http.StatusOK, m)
}

// MessagesUpdate changes the read and archived flags. Absent flags are left
// alone.
func (a *Admin) MessagesUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "update message", err)
		return
	}
	var in struct {
		IsRead     *bool `json:"is_read"`
		IsArchived *bool `json:"is_archived"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, "update message", err)
		return
	}
	if in.IsRead != nil {
		if err := a.Messages.SetRead(r.Context(), id, *in.IsRead); err != nil {
			fail(w, r, "update message", err)
			return
		}
	}
	if in.IsArchived != nil {
		if err := a.Messages.SetArchived(r.Context(), id, *in.IsArchived); err != nil {
			fail(w, r, "update message", err)
			return
		}
	}
	m, err := a.Messages.FindByID(r.Context(), id)
	if err != nil {
		fail(w, r, "update message", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MessagesDelete removes a message.
func (a *Admin) MessagesDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		fail(w, r, "delete message", err)
		return
	}
	if err := a.Messages.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete message", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MessagesUnread returns the number of unread, unarchived messages.
func (a *Admin) MessagesUnread(w http.ResponseWriter, r *http.Request) {
	n, err := a.Messages.CountUnread(r.Context())
	if err != nil {
		fail(w, r, "count unread messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}
