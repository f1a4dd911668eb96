package api

import (
	"encoding/json"
	"net/http"

	"github.com/maryuh24/lashesstudio/internal/appointment"
)

func meHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		u, err := svc.Me(r.Context(), session.UserID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MeResponse{User: toUserResponse(*u)})
	}
}

func changePasswordHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := svc.ChangePassword(r.Context(), session.UserID, req.OldPassword, req.NewPassword); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Admin

func listUsersHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.ListUsers(r.Context(), appointment.UserFilter{
			Role:   q.Get("user_type"),
			Search: q.Get("search"),
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		resp := make([]UserResponse, 0, len(items))
		for _, u := range items {
			resp = append(resp, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createUserHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		created, err := svc.CreateUser(r.Context(), appointment.UserInput(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(*created))
	}
}

func updateUserHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req UserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		updated, err := svc.UpdateUser(r.Context(), session.Actor(), id, appointment.UserInput(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(*updated))
	}
}

func deleteUserHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteUser(r.Context(), session.Actor(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func statsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse(*st))
	}
}
