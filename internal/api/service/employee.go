package service

import (
	"context"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/google/uuid"
)

// EmployeeService wraps the employees repository. Thin by design: the
// interesting behavior in this service lives in session management.
type EmployeeService struct {
	Store store.Store
}

func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.Store.Employees().ListEmployees(ctx)
}

func (s *EmployeeService) Get(ctx context.Context, id string) (domain.Employee, error) {
	return s.Store.Employees().GetEmployee(ctx, id)
}

// Create inserts a new employee with a generated UUID and returns the
// stored record.
func (s *EmployeeService) Create(ctx context.Context, name string) (domain.Employee, error) {
	id := uuid.NewString()
	if err := s.Store.Employees().CreateEmployee(ctx, domain.Employee{ID: id, Name: name}); err != nil {
		return domain.Employee{}, err
	}
	return s.Store.Employees().GetEmployee(ctx, id)
}

func (s *EmployeeService) UpdateName(ctx context.Context, id, name string) (domain.Employee, error) {
	return s.Store.Employees().UpdateEmployeeName(ctx, id, name)
}

func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	return s.Store.Employees().DeleteEmployee(ctx, id)
}
