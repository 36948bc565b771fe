package services

import "olist-dashboard/internal/models"

// UnknownCategory replaces a product category that is missing at the source.
const UnknownCategory = "Unknown Category"

// NormalizeCategories left-joins products with translations and resolves the
// display category of every product. The input slice is not modified.
func NormalizeCategories(products []models.Product, translations []models.CategoryTranslation) []models.Product {
	english := make(map[string]string, len(translations))
	for _, t := range translations {
		english[t.CategoryName] = t.CategoryNameEnglish
	}

	out := make([]models.Product, len(products))
	for i, p := range products {
		out[i] = p
		switch translated := english[p.CategoryName]; {
		case p.CategoryName == "":
			out[i].CategoryName = UnknownCategory
		case translated != "":
			out[i].CategoryName = translated
		}
	}
	return out
}
