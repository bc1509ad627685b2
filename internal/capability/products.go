package capability

import (
	"context"
	"fmt"

	"github.com/hugohenrick/kommand/internal/domain/product"
	"github.com/hugohenrick/kommand/pkg/command"
	"github.com/hugohenrick/kommand/pkg/command/executor"
	"github.com/hugohenrick/kommand/pkg/domain"
)

func productFilter(shopID int64) product.Filter {
	return product.Filter{ShopID: shopID}
}

func (s *Service) createProduct(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := product.NewProduct(scope.ShopID,
		stringParam(p, "name"),
		floatParam(p, "price"),
		floatParam(p, "cost_price"),
		int(intParam(p, "quantity")),
	)
	if err != nil {
		return nil, domain.NewRuleError("product", "%s", err.Error())
	}
	if err := s.products.Create(ctx, pr); err != nil {
		return nil, fmt.Errorf("erro ao criar produto: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Created product '%s' with ID %d", pr.Name, pr.ID),
		entityData("product", pr.ID, pr, nil),
		changed("product", command.OperationCreated, pr.ID),
	), nil
}

func (s *Service) listProducts(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	f := productFilter(scope.ShopID)
	f.Search = stringParam(p, "search")
	products, err := s.products.List(ctx, f, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar produtos: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d products", len(products)), listData("products", products, len(products)), nil), nil
}

func (s *Service) getProduct(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	return command.Succeeded("", "Found product: "+pr.Name, entityData("product", pr.ID, pr, nil), nil), nil
}

func (s *Service) searchProducts(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	query := stringParam(p, "query")
	f := product.Filter{Search: query}
	switch scope.Role {
	case command.RoleShopAdmin:
		f.ShopID = scope.ShopID
	case command.RoleCustomer:
		f.ActiveOnly = true
	}
	products, err := s.products.List(ctx, f, DefaultListLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar produtos: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Found %d products matching '%s'", len(products), query),
		listData("products", products, len(products)),
		nil,
	), nil
}

func (s *Service) getLowStock(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	products, err := s.products.LowStock(ctx, scope.ShopID, int(intParam(p, "threshold")))
	if err != nil {
		return nil, fmt.Errorf("erro ao listar estoque baixo: %w", err)
	}
	return command.Succeeded("", fmt.Sprintf("Found %d low stock products", len(products)), listData("products", products, len(products)), nil), nil
}

func (s *Service) restockProduct(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	qty := int(intParam(p, "quantity"))
	if err := pr.Restock(qty); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, pr); err != nil {
		return nil, fmt.Errorf("erro ao atualizar estoque: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Added %d units to '%s'. New stock: %d", qty, pr.Name, pr.Quantity),
		entityData("product", pr.ID, pr, map[string]any{"quantity": pr.Quantity}),
		changed("product", command.OperationUpdated, pr.ID),
	), nil
}

func (s *Service) setProductPrice(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	old := pr.Price
	if err := pr.SetPrice(floatParam(p, "price")); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, pr); err != nil {
		return nil, fmt.Errorf("erro ao atualizar preço: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Updated '%s' price from %s to %s", pr.Name, money(old), money(pr.Price)),
		entityData("product", pr.ID, pr, map[string]any{"old_price": old, "price": pr.Price}),
		changed("product", command.OperationUpdated, pr.ID),
	), nil
}

func (s *Service) deleteProduct(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	if err := s.products.Delete(ctx, pr.ID); err != nil {
		return nil, fmt.Errorf("erro ao remover produto: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Deleted product %d", pr.ID),
		map[string]any{"id": pr.ID, "product_id": pr.ID, "name": pr.Name},
		changed("product", command.OperationDeleted, pr.ID),
	), nil
}

// productChanges monta as alterações a partir dos parâmetros presentes
func productChanges(p map[string]any) product.Changes {
	var c product.Changes
	if v, ok := p["name"].(string); ok {
		c.Name = &v
	}
	if v, ok := p["description"].(string); ok {
		c.Description = &v
	}
	if v, ok := p["price"].(float64); ok {
		c.Price = &v
	}
	if v, ok := p["cost_price"].(float64); ok {
		c.CostPrice = &v
	}
	if v, ok := p["min_price"].(float64); ok {
		c.MinPrice = &v
	}
	if v, ok := p["min_stock_level"].(int64); ok {
		n := int(v)
		c.MinStockLevel = &n
	}
	return c
}

func (s *Service) updateProduct(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	if err := pr.Apply(productChanges(p)); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, pr); err != nil {
		return nil, fmt.Errorf("erro ao atualizar produto: %w", err)
	}
	return command.Succeeded("",
		fmt.Sprintf("Updated product %d ('%s')", pr.ID, pr.Name),
		entityData("product", pr.ID, pr, nil),
		changed("product", command.OperationUpdated, pr.ID),
	), nil
}

// toggleProductStatus aplica o status pedido; sem status, inverte o atual
func (s *Service) toggleProductStatus(ctx context.Context, scope executor.Scope, p map[string]any) (*command.ActionResult, error) {
	pr, err := s.scopedProduct(ctx, scope, intParam(p, "product_id"))
	if err != nil {
		return nil, err
	}
	active := !pr.Active
	switch stringParam(p, "status") {
	case "active":
		active = true
	case "inactive":
		active = false
	}
	pr.SetActive(active)
	if err := s.products.Update(ctx, pr); err != nil {
		return nil, fmt.Errorf("erro ao atualizar status do produto: %w", err)
	}

	status := "inactive"
	if pr.Active {
		status = "active"
	}
	return command.Succeeded("",
		fmt.Sprintf("Product '%s' is now %s", pr.Name, status),
		entityData("product", pr.ID, pr, map[string]any{"active": pr.Active}),
		changed("product", command.OperationUpdated, pr.ID),
	), nil
}
