package prestashop

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/recordsync"
)

// DefaultLanguageID is the webservice language the localized fields are
// written to.
const DefaultLanguageID = "1"

// ProductFields are the values written into a blank product template.
type ProductFields struct {
	Reference   recordsync.Reference
	Name        string
	Description string
	Price       float64
	Weight      float64
	Quantity    int
	Categories  recordsync.CategorySet

	// LanguageID selects the localized entries to fill.
	// Defaults to DefaultLanguageID.
	LanguageID string
}

// Fields merges a scraped product with its commercial line.
func Fields(data *recordsync.ProductData, line recordsync.CommercialLine, categories *recordsync.CategoryMapping) ProductFields {
	return ProductFields{
		Reference:   line.Reference,
		Name:        data.Name(),
		Description: data.Description,
		Price:       line.Price,
		Weight:      line.Weight,
		Quantity:    line.Quantity,
		Categories:  categories.Resolve(line.Category),
	}
}

// Fill returns a copy of blank with f applied. blank is not modified.
//
// The category associations are replaced by exactly the three ids of
// f.Categories and any tag associations are dropped. The initial stock entry
// is bound to the default combination.
func Fill(blank *etree.Document, f ProductFields) (*etree.Document, error) {
	doc := blank.Copy()
	product := doc.FindElement(".//product")
	if product == nil {
		return nil, recordsync.Errorf(recordsync.EREMOTE, "product template has no product element")
	}

	lang := f.LanguageID
	if lang == "" {
		lang = DefaultLanguageID
	}

	child(product, "reference").SetText(string(f.Reference))
	child(product, "price").SetText(formatDecimal(f.Price))
	child(product, "weight").SetText(formatDecimal(f.Weight))
	child(product, "active").SetText("1")
	child(product, "id_category_default").SetText(strconv.Itoa(f.Categories.Child()))

	setLocalized(child(product, "name"), lang, f.Name)
	setLocalized(child(product, "link_rewrite"), lang, Slugify(f.Name))
	setLocalized(child(product, "description"), lang, f.Description)

	assoc := child(product, "associations")
	if old := assoc.SelectElement("categories"); old != nil {
		assoc.RemoveChild(old)
	}
	categories := assoc.CreateElement("categories")
	for _, id := range f.Categories.IDs() {
		c := categories.CreateElement("category")
		c.CreateElement("id").SetText(strconv.Itoa(id))
		c.CreateElement("position").SetText("0")
	}
	for tags := assoc.SelectElement("tags"); tags != nil; tags = assoc.SelectElement("tags") {
		assoc.RemoveChild(tags)
	}

	stock := child(child(assoc, "stock_availables"), "stock_available")
	child(stock, "id_product_attribute").SetText("0")
	child(stock, "quantity").SetText(strconv.Itoa(f.Quantity))

	return doc, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from name: lower-case alphanumerics
// separated by single hyphens, with no leading or trailing hyphen.
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// child returns the first child of el named tag, creating it if missing.
func child(el *etree.Element, tag string) *etree.Element {
	if c := el.SelectElement(tag); c != nil {
		return c
	}
	return el.CreateElement(tag)
}

// setLocalized sets the language entry of el matching lang, adding one if
// the template has none.
func setLocalized(el *etree.Element, lang, value string) {
	for _, l := range el.SelectElements("language") {
		if l.SelectAttrValue("id", "") == lang {
			l.SetText(value)
			return
		}
	}
	l := el.CreateElement("language")
	l.CreateAttr("id", lang)
	l.SetText(value)
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
