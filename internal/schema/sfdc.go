package schema

// ProductFields describes the Salesforce Product2 export. Positions follow
// the default export column order: Id, Name, StockKeepingUnit, ProductCode.
var ProductFields = []FieldSpec{
	{Field: FieldID, Variants: []string{"id", "product id", "productid", "product_id", "product2id"}, Position: 0, Required: true},
	{Field: FieldName, Variants: []string{"name", "product name", "productname", "product_name"}, Position: 1},
	{Field: FieldSKU, Variants: []string{"stockkeepingunit", "sku", "stock keeping unit", "stock_keeping_unit"}, Position: 2, Required: true},
	{Field: FieldProductCode, Variants: []string{"productcode", "product code", "product_code"}, Position: 3},
}

// ProductMediaFields describes the Salesforce ProductMedia export.
var ProductMediaFields = []FieldSpec{
	{Field: FieldProductID, Variants: []string{"productid", "product_id"}, Position: NoPosition, Required: true},
	{Field: FieldElectronicMediaID, Variants: []string{"electronicmediaid", "electronic_media_id"}, Position: NoPosition, Required: true},
}

// ManagedContentFields describes the Salesforce ManagedContent export.
var ManagedContentFields = []FieldSpec{
	{Field: FieldContentID, Variants: []string{"id", "managedcontentid"}, Position: NoPosition, Required: true},
	{Field: FieldContentKey, Variants: []string{"contentkey", "content_key"}, Position: NoPosition, Required: true},
}
