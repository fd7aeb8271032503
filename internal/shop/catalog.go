package shop

import "github.com/thantzaw/pocketpos/internal/schema"

// Aliases let the instantiated generic service be embedded by name.
type (
	categoryService = service[*schema.Category, *schema.CategoryPatch]
	productService  = service[*schema.Product, *schema.ProductPatch]
	supplierService = service[*schema.Supplier, *schema.SupplierPatch]
	customerService = service[*schema.Customer, *schema.CustomerPatch]
	saleService     = service[*schema.Sale, *schema.SalePatch]
	purchaseService = service[*schema.Purchase, *schema.PurchasePatch]
)

// Categories manages product categories.
type Categories struct {
	categoryService
}

// Products manages the stocked items.
type Products struct {
	productService
}
