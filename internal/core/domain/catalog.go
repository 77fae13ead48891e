package domain

type CatalogItem struct {
	ItemID        int32
	Alias         string
	ENDescription string
	CNDescription string
	FileName      string
}

// ItemCategory groups catalog items under "<Category> - <SubCategory>".
type ItemCategory struct {
	Key   string
	Items []CatalogItem
}
