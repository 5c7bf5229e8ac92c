package catalog

import showcasecatalog "github.com/goliatone/go-showcase/catalog"

type (
	Attachment  = showcasecatalog.Attachment
	Item        = showcasecatalog.Item
	ListOptions = showcasecatalog.ListOptions
	Counts      = showcasecatalog.Counts
	Report      = showcasecatalog.Report
)

const (
	StockInStock    = showcasecatalog.StockInStock
	StockOutOfStock = showcasecatalog.StockOutOfStock
	StockBackorder  = showcasecatalog.StockBackorder
)
