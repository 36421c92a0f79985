package workflow

import (
	"context"

	"splice/internal/catalog"
	"splice/internal/config"
)

// RegisterCatalogs adds one task per configured catalog that allocates or
// rebuilds the catalog's ledger according to its mode.
func RegisterCatalogs(registry *Registry, catalogs []config.Catalog, svc *catalog.Service) error {
	for _, cat := range catalogs {
		err := registry.Register(cat.Name, func(ctx context.Context) (string, error) {
			outcome, err := svc.Sync(ctx, cat)
			if err != nil {
				return "", err
			}
			return outcome.Summary(), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
