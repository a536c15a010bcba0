package model

// Product is the persisted outcome for one CSV row. InputURLs keeps
// the raw split order from the upload; OutputURLs holds one entry per
// successfully processed input, in relative success order (failed
// inputs leave no gap).
type Product struct {
	ID           int64    `json:"id"`
	RequestID    string   `json:"requestId"`
	SerialNumber int      `json:"serialNumber"`
	ProductName  string   `json:"productName"`
	InputURLs    []string `json:"inputUrls"`
	OutputURLs   []string `json:"outputUrls"`
}
