package model

// Category is a known transaction category. Unknown slugs are allowed and
// get a generated label with the default icon.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

const DefaultCategoryIcon = "Wallet"

var Categories = []Category{
	{ID: "alimentacao", Label: "Alimentação", Icon: "UtensilsCrossed"},
	{ID: "transporte", Label: "Transporte", Icon: "Car"},
	{ID: "lazer", Label: "Lazer", Icon: "Gamepad2"},
	{ID: "saude", Label: "Saúde", Icon: "Heart"},
	{ID: "educacao", Label: "Educação", Icon: "GraduationCap"},
	{ID: "moradia", Label: "Moradia", Icon: "Home"},
	{ID: "compras", Label: "Compras", Icon: "ShoppingBag"},
	{ID: "salario", Label: "Salário", Icon: "Wallet"},
}

// KnownCategory looks up id in Categories.
func KnownCategory(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
