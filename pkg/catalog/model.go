package catalog

// Review is one customer opinion attached to a product. The slice order on the
// product is the display order.
type Review struct {
	Author  string `yaml:"author" json:"author"`
	Date    string `yaml:"date" json:"date"`
	Rating  int    `yaml:"rating" json:"rating"`
	Comment string `yaml:"comment" json:"comment"`
}

// Product is one immutable catalog record. Prices are integer Chilean pesos,
// no fractional subunit.
type Product struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Price            int      `yaml:"price" json:"price"`
	ImageURL         string   `yaml:"image" json:"imageUrl"`
	ShortDescription string   `yaml:"description" json:"description"`
	LongDescription  string   `yaml:"long_description" json:"longDescription"`
	Rating           float64  `yaml:"rating" json:"rating"`
	ReviewCount      int      `yaml:"review_count" json:"reviewCount"`
	Servings         string   `yaml:"servings" json:"servings"`
	Calories         string   `yaml:"calories" json:"calories"`
	Ingredients      string   `yaml:"ingredients" json:"ingredients"`
	Reviews          []Review `yaml:"reviews" json:"reviews"`
}

// Category groups products. Membership is defined by the category's product
// list, not by a field on the product.
type Category struct {
	Key      string    `yaml:"key" json:"key"`
	Name     string    `yaml:"name" json:"name"`
	Icon     string    `yaml:"icon" json:"icon"`
	Products []Product `yaml:"products" json:"products"`
}
