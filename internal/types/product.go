package types

// CSVHeader is the fixed column order of the exported table.
var CSVHeader = []string{"asin", "title", "link", "image", "price", "rating", "reviews"}

// Product is one search result card mapped to flat string fields.
// An absent field is the empty string and means "unknown", not zero.
type Product struct {
	// ASIN is the site-assigned product code and the dedup key.
	ASIN string `json:"asin" bson:"asin"`

	Title string `json:"title" bson:"title"`

	// Link is absolute, resolved against the search domain.
	Link string `json:"link" bson:"link"`

	Image string `json:"image" bson:"image"`

	// Price is kept as rendered, e.g. "19.99" or "₹1,299".
	Price string `json:"price" bson:"price"`

	Rating  string `json:"rating" bson:"rating"`
	Reviews string `json:"reviews" bson:"reviews"`
}

// Row returns the product fields in CSVHeader order.
func (p Product) Row() []string {
	return []string{p.ASIN, p.Title, p.Link, p.Image, p.Price, p.Rating, p.Reviews}
}

// Get returns a field by its column name.
func (p Product) Get(field string) string {
	switch field {
	case "asin":
		return p.ASIN
	case "title":
		return p.Title
	case "link":
		return p.Link
	case "image":
		return p.Image
	case "price":
		return p.Price
	case "rating":
		return p.Rating
	case "reviews":
		return p.Reviews
	}
	return ""
}
