package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/staffroom/internal/api/service"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/aussiebroadwan/staffroom/pkg/httpx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
	"github.com/google/uuid"
)

// EmployeesHandler serves the /api/employees CRUD endpoints.
type EmployeesHandler struct {
	EmployeeService *service.EmployeeService
}

type employeeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *EmployeesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	employees, err := h.EmployeeService.List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("list employees failed", "err", err)
		http.Error(w, "Error retrieving data from the database", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, employees)
}

func (h *EmployeesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	employee, err := h.EmployeeService.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		slogx.FromContext(ctx).Error("get employee failed", "id", id, "err", err)
		http.Error(w, "Error retrieving data from the database", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, employee)
}

func (h *EmployeesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	employee, err := h.EmployeeService.Create(ctx, req.Name)
	if err != nil {
		slogx.FromContext(ctx).Error("create employee failed", "err", err)
		http.Error(w, "Error creating new employee record", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", "/api/employees/"+employee.ID)
	httpx.WriteJSON(w, http.StatusCreated, employee)
}

func (h *EmployeesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.ID != "" && req.ID != id {
		http.Error(w, "Employee ID mismatch", http.StatusBadRequest)
		return
	}

	employee, err := h.EmployeeService.UpdateName(ctx, id, req.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, fmt.Sprintf("Employee with Id = %s not found", id), http.StatusNotFound)
		return
	case err != nil:
		slogx.FromContext(ctx).Error("update employee failed", "id", id, "err", err)
		http.Error(w, "Error updating data", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, employee)
}

func (h *EmployeesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := uuid.Parse(id); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err := h.EmployeeService.Delete(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, fmt.Sprintf("Employee with Id = %s not found", id), http.StatusNotFound)
		return
	case err != nil:
		slogx.FromContext(ctx).Error("delete employee failed", "id", id, "err", err)
		http.Error(w, "Error deleting data", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
