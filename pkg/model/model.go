package model

// Address is the transfer representation of an address book entry, as it appears in the bodies of
// HTTP requests and responses. The Id field is ignored when an address is created.
type Address struct {
	Id      int64  `json:"id,omitempty"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}
