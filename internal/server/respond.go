package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ferrumlabs/backoffice/pkg/composables"
	"github.com/ferrumlabs/backoffice/pkg/serrors"
)

const tenantHeader = "X-Tenant-ID"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error's kind onto an HTTP status. Unclassified errors
// become opaque 500s; their details go to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *serrors.Error
	if !errors.As(err, &se) {
		composables.UseLogger(r.Context()).WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case serrors.KindValidation:
		status = http.StatusBadRequest
	case serrors.KindNotFound:
		status = http.StatusNotFound
	case serrors.KindCapacity:
		status = http.StatusConflict
	case serrors.KindLockout:
		status = http.StatusLocked
	case serrors.KindGateway:
		status = http.StatusBadGateway
	case serrors.KindConsistency:
		// The client must learn the operation half-succeeded.
		composables.UseLogger(r.Context()).WithError(err).Error("partial state committed")
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{Code: se.Code, Message: se.Message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "MALFORMED_BODY", Message: "request body is not valid JSON"})
		return false
	}
	return true
}

func pathUint(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// tenantScope binds the tenant named in the X-Tenant-ID header to the request
// context. Requests without a valid tenant id never reach the handler.
func (s *Server) tenantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(r.Header.Get(tenantHeader))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Code: "MISSING_TENANT", Message: "a valid " + tenantHeader + " header is required"})
			return
		}
		ctx := composables.WithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) tenantScoped(h http.HandlerFunc) http.Handler {
	return s.tenantScope(h)
}
