package storage

import "poflow/internal"

// SampleInventory is the demo catalog used by the seed subcommand.
func SampleInventory() []internal.InventoryItem {
	return []internal.InventoryItem{
		{ItemName: "Office Paper A4", Quantity: 5, UnitPrice: 12.50, Category: "Office Supplies", Supplier: "Paper Corp", SupplierEmail: "orders@papercorp.example.com", MinThreshold: 20},
		{ItemName: "Printer Ink Cartridges", Quantity: 2, UnitPrice: 89.99, Category: "Office Supplies", Supplier: "Tech Hardware", SupplierEmail: "sales@techhardware.example.com", MinThreshold: 10},
		{ItemName: "Coffee Beans Premium", Quantity: 0, UnitPrice: 24.99, Category: "Pantry", Supplier: "Coffee Co", SupplierEmail: "wholesale@coffeeco.example.com", MinThreshold: 15},
		{ItemName: "Ballpoint Pens", Quantity: 45, UnitPrice: 1.20, Category: "Office Supplies", Supplier: "Paper Corp", SupplierEmail: "orders@papercorp.example.com", MinThreshold: 30},
		{ItemName: "USB-C Cables", Quantity: 8, UnitPrice: 15.00, Category: "Electronics", Supplier: "Tech Hardware", SupplierEmail: "sales@techhardware.example.com", MinThreshold: 12},
		{ItemName: "Wireless Keyboards", Quantity: 14, UnitPrice: 45.00, Category: "Electronics", Supplier: "Tech Hardware", SupplierEmail: "sales@techhardware.example.com", MinThreshold: 8},
		{ItemName: "Sticky Notes", Quantity: 3, UnitPrice: 4.75, Category: "Office Supplies", Supplier: "Paper Corp", SupplierEmail: "orders@papercorp.example.com", MinThreshold: 25},
		{ItemName: "Green Tea Boxes", Quantity: 22, UnitPrice: 8.50, Category: "Pantry", Supplier: "Coffee Co", SupplierEmail: "wholesale@coffeeco.example.com", MinThreshold: 10},
	}
}

// SeedSampleInventory loads the demo catalog. Idempotent: re-seeding updates
// quantities instead of duplicating rows.
func (d *DB) SeedSampleInventory() error {
	return d.UpsertInventoryItems(SampleInventory())
}
