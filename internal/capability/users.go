package capability

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/executor"
)

func (s *Service) listUsers(ctx context.Context, _ executor.Scope, p map[string]any) (*command.ActionResult, error) {
	role := command.Role(stringParam(p, "role"))
	users, err := s.users.List(ctx, role, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d users", len(users)), listData("users", users, len(users)), nil), nil
}

func (s *Service) getUser(ctx context.Context, _ executor.Scope, p map[string]any) (*command.ActionResult, error) {
	u, err := s.users.FindByID(ctx, intParam(p, "user_id"))
	if err != nil {
		return nil, err
	}
	return command.Succeeded("", "Found user: "+u.Name, entityData("user", u.ID, u, nil), nil), nil
}

func (s *Service) listCustomers(ctx context.Context, scope executor.Scope, _ map[string]any) (*command.ActionResult, error) {
	customers, err := s.orders.Customers(ctx, scope.ShopID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar clientes: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d customers", len(customers)), listData("customers", customers, len(customers)), nil), nil
}
