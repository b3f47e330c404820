package http

import (
	"encoding/json"
	"net/http"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// handleSignup godoc
// @Summary      Create new employee
// @Description  Registers an employee. The first account may be an admin; later admin accounts need an admin.
// @Tags         Employees
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SignupRequest  true  "Employee details"
// @Success      201      {object}  domain.EmployeeSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      409      {object}  ErrorResponse  "Email already registered"
// @Router       /employee/signup [post]
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	employee, err := s.employeeService.Signup(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "signup failed")
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

// handleLogin godoc
// @Summary      Employee login
// @Description  Authenticate with email and password to receive a JWT valid for one day
// @Tags         Employees
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Router       /employee/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserAgent = r.UserAgent()
	req.IPAddress = clientAddress(r)

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout
// @Description  Invalidate the current session token
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /employee/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authService.Logout(r.Context(), extractBearerToken(r)); err != nil {
		s.logger.Warn("logout failed", "error", err)
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleLogoutAll godoc
// @Summary      Logout everywhere
// @Description  Invalidate every session of the calling employee, including the current one
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /employee/logout-all [post]
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	caller := GetAuthContext(r.Context())
	if err := s.authService.LogoutAll(r.Context(), caller.EmployeeID); err != nil {
		writeDomainError(w, err, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleCurrentEmployee godoc
// @Summary      Get current employee
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.EmployeeSummary
// @Failure      401  {object}  ErrorResponse
// @Router       /employee [get]
func (s *Server) handleCurrentEmployee(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	employee, err := s.employeeService.Get(r.Context(), authCtx.EmployeeID)
	if err != nil {
		writeDomainError(w, err, "failed to get employee")
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

// handleListEmployees godoc
// @Summary      List employees
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Param        filter  query     string  false  "Match on name or email"
// @Param        limit   query     int     false  "Page size"    default(10)
// @Param        page    query     int     false  "Page number"  default(1)
// @Success      200     {object}  domain.EmployeePage
// @Router       /employee/list [get]
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.employeeService.List(r.Context(), domain.EmployeeListQuery{
		Filter: q.Get("filter"),
		Limit:  queryInt(q.Get("limit")),
		Page:   queryInt(q.Get("page")),
	})
	if err != nil {
		writeDomainError(w, err, "failed to list employees")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleGetEmployee godoc
// @Summary      Get employee
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Employee ID"
// @Success      200  {object}  domain.EmployeeSummary
// @Failure      404  {object}  ErrorResponse
// @Router       /employee/{id} [get]
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	employee, err := s.employeeService.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get employee")
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

// handleUpdateEmployee godoc
// @Summary      Update employee
// @Description  Partial update; omitted fields are unchanged. Only admins may change employee_type.
// @Tags         Employees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "Employee ID"
// @Param        request  body      domain.EmployeeUpdate  true  "Fields to change"
// @Success      200      {object}  domain.EmployeeSummary
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /employee/{id} [put]
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var update domain.EmployeeUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	employee, err := s.employeeService.Update(r.Context(), GetAuthContext(r.Context()), id, update)
	if err != nil {
		writeDomainError(w, err, "failed to update employee")
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

// handleDeleteEmployee godoc
// @Summary      Delete employee
// @Tags         Employees
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Employee ID"
// @Success      200  {object}  StatusResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /employee/{id} [delete]
func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.employeeService.Delete(r.Context(), GetAuthContext(r.Context()), id); err != nil {
		writeDomainError(w, err, "failed to delete employee")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Address endpoints

// handleAddAddress godoc
// @Summary      Create employee address
// @Tags         Addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                     true  "Employee ID"
// @Param        request  body      driving.AddressRequest  true  "Address"
// @Success      201      {object}  domain.EmployeeAddress
// @Router       /employee/{id}/address [post]
func (s *Server) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req driving.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address, err := s.employeeService.AddAddress(r.Context(), GetAuthContext(r.Context()), id, req)
	if err != nil {
		writeDomainError(w, err, "failed to add address")
		return
	}

	writeJSON(w, http.StatusCreated, address)
}

// handleListAddresses godoc
// @Summary      List employee addresses
// @Tags         Addresses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Employee ID"
// @Success      200  {array}   domain.EmployeeAddress
// @Router       /employee/{id}/address/list [get]
func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	addresses, err := s.employeeService.ListAddresses(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list addresses")
		return
	}
	if addresses == nil {
		addresses = []*domain.EmployeeAddress{}
	}

	writeJSON(w, http.StatusOK, addresses)
}

// handleDeleteAddress godoc
// @Summary      Delete employee address
// @Tags         Addresses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Address ID"
// @Success      200  {object}  StatusResponse
// @Router       /employee/address/{id} [delete]
func (s *Server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.employeeService.DeleteAddress(r.Context(), GetAuthContext(r.Context()), id); err != nil {
		writeDomainError(w, err, "failed to delete address")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
