package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ferrumlabs/backoffice/modules/core/services"
	"github.com/ferrumlabs/backoffice/pkg/composables"
)

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string `json:"name"`
		AdminPhone string `json:"adminPhone"`
		AdminEmail string `json:"adminEmail"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	created, err := s.services.Tenants.CreateTenant(r.Context(), services.CreateTenantInput{
		Name:       body.Name,
		AdminPhone: body.AdminPhone,
		AdminEmail: body.AdminEmail,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTenantView(created))
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_TENANT_ID", Message: "tenant id must be a UUID"})
		return
	}
	t, err := s.services.Tenants.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantView(t))
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_TENANT_ID", Message: "tenant id must be a UUID"})
		return
	}
	if err := s.services.Tenants.DeleteTenant(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTenantActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_TENANT_ID", Message: "tenant id must be a UUID"})
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.services.Tenants.SetActive(r.Context(), id, body.Active); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateOrgUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParentID *uint  `json:"parentId"`
		Name     string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	created, err := s.services.OrgUnits.Create(r.Context(), body.ParentID, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrgUnitView(created))
}

func (s *Server) handleGetOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	unit, err := s.services.OrgUnits.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrgUnitView(unit))
}

func (s *Server) handleUpdateOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	var body struct {
		ParentID *uint  `json:"parentId"`
		Name     string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	updated, err := s.services.OrgUnits.Update(r.Context(), id, body.ParentID, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrgUnitView(updated))
}

func (s *Server) handleDeleteOrgUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	if err := s.services.OrgUnits.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrgUnitRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	includeDescendants := r.URL.Query().Get("includeDescendants") == "true"
	roles, err := s.services.OrgUnits.GetEffectiveRoles(r.Context(), id, includeDescendants)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleViews(roles))
}

func (s *Server) handleAssignOrgUnitRole(w http.ResponseWriter, r *http.Request) {
	unitID, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	roleID, ok := pathUint(r, "roleID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "role id must be an integer"})
		return
	}
	if err := s.services.OrgUnits.AssignRole(r.Context(), unitID, roleID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveOrgUnitRole(w http.ResponseWriter, r *http.Request) {
	unitID, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	roleID, ok := pathUint(r, "roleID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "role id must be an integer"})
		return
	}
	if err := s.services.OrgUnits.RemoveRole(r.Context(), unitID, roleID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Permissions []string `json:"permissions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.services.Roles.CreateAndGrant(r.Context(), newRole(tenantID, body.Name, body.Description), body.Permissions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleView(created))
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.services.Roles.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleViews(roles))
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	role, err := s.services.Roles.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleView(role))
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Permissions []string `json:"permissions"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	updated, err := s.services.Roles.UpdateAndGrant(r.Context(), id, body.Name, body.Description, body.Permissions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleView(updated))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	if err := s.services.Roles.DeleteAndDetachUsers(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRolePermissions returns the role's grants as currently resolvable:
// grants whose feature is disabled are filtered out, not shown.
func (s *Server) handleRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_ID", Message: "id must be an integer"})
		return
	}
	role, err := s.services.Roles.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	granted, err := s.services.Permissions.GetGrantedForRole(r.Context(), role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionViews(granted))
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	eligible, err := s.services.Permissions.GetAllPermissions(r.Context(), &tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPermissionViews(eligible))
}

func (s *Server) handleSmsRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.services.Auth.RequestSmsCode(r.Context(), body.PhoneNumber); err != nil {
		writeError(w, r, err)
		return
	}
	// Unknown phones get the same response as known ones.
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSmsVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
		Code        string `json:"code"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	u, tenantID, err := s.services.Auth.AuthenticateBySms(r.Context(), body.PhoneNumber, body.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		TenantID uuid.UUID `json:"tenantId"`
		User     userView  `json:"user"`
	}{TenantID: tenantID, User: toUserView(u)})
}

func (s *Server) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	u, err := s.services.Auth.AuthenticateByPassword(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}
