package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-assist/internal/audit"
	"github.com/nerrad567/gray-assist/internal/auth"
	"github.com/nerrad567/gray-assist/internal/smarthome"
)

// auditSource tags trail entries created on behalf of the assistant.
const auditSource = "assistant"

// handleAuthRedirect runs the account-linking handshake. On success the
// assistant's browser is sent back to the redirect URI with the access
// token as the authorization code and the opaque state echoed.
func (s *Server) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectURI := q.Get("redirect_uri")
	clientID := q.Get("client_id")
	state := q.Get("state")

	if redirectURI == "" || clientID == "" {
		writeBadRequest(w, "redirect_uri and client_id are required")
		return
	}

	target, err := s.gate.Authorize(r.Context(), redirectURI, clientID, state)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidClient), errors.Is(err, auth.ErrInvalidRedirect):
			s.logger.Warn("rejected account-linking request",
				"client_id", clientID,
				"error", err,
			)
			writeBadRequest(w, "invalid client id or redirect uri")
		default:
			s.logger.Error("account-linking failed", "error", err)
			writeInternalError(w, "authorization failed")
		}
		return
	}

	s.recordAudit(r, &audit.Entry{
		Action:  audit.ActionLink,
		Source:  auditSource,
		Details: map[string]any{"client_id": clientID},
	})

	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// handleFulfillment decodes one intent envelope and hands it to the bridge.
// Per-device failures come back inside the payload with a 200; only a
// structurally broken request gets a 400.
func (s *Server) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	var req smarthome.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	if grant := grantFromContext(r.Context()); grant != nil {
		s.logger.Debug("fulfillment request",
			"request_id_assistant", req.RequestID,
			"client_id", grant.ClientID,
		)
	}

	resp, err := s.bridge.HandleRequest(r.Context(), &req)
	if err != nil {
		if errors.Is(err, smarthome.ErrInvalidRequest) {
			writeBadRequest(w, "invalid intent request")
			return
		}
		s.logger.Error("fulfillment failed",
			"request_id_assistant", req.RequestID,
			"error", err,
		)
		writeInternalError(w, "intent handling failed")
		return
	}

	s.auditExecuteResults(r, resp)

	writeJSON(w, http.StatusOK, resp)
}

// auditExecuteResults records one trail entry per device touched by an
// EXECUTE intent. QUERY and SYNC are read-only and not recorded.
func (s *Server) auditExecuteResults(r *http.Request, resp *smarthome.Response) {
	payload, ok := resp.Payload.(*smarthome.ExecutePayload)
	if !ok {
		return
	}

	var grantID string
	if grant := grantFromContext(r.Context()); grant != nil {
		grantID = grant.ID
	}

	for _, result := range payload.Commands {
		for _, id := range result.IDs {
			details := map[string]any{"status": result.Status}
			if result.ErrorCode != "" {
				details["error_code"] = result.ErrorCode
			}
			s.recordAudit(r, &audit.Entry{
				Action:   audit.ActionCommand,
				DeviceID: id,
				GrantID:  grantID,
				Source:   auditSource,
				Details:  details,
			})
		}
	}
}

// recordAudit writes a trail entry if a recorder is configured. Trail
// failures never fail the request.
func (s *Server) recordAudit(r *http.Request, entry *audit.Entry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(r.Context(), entry); err != nil {
		s.logger.Warn("audit record failed", "action", entry.Action, "error", err)
	}
}

// handleAuditList returns the activity trail, filtered and paginated via
// query parameters.
func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "audit trail is not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		DeviceID: q.Get("device_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit list failed", "error", err)
		writeInternalError(w, "could not read audit trail")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
