package model

import (
	dto "gitlab.com/dirk.krummacker/address-book-service/pkg/model"
)

// Address is the data structure for an address book entry as it is stored in the database.
// The Id is assigned by the database when the entry is inserted and never changes afterwards.
type Address struct {
	Id      int64  `db:"id"`
	Name    string `db:"name"`
	Phone   string `db:"phone"`
	Email   string `db:"email"`
	Street  string `db:"street"`
	City    string `db:"city"`
	State   string `db:"state"`
	ZipCode string `db:"zip_code"`
	Country string `db:"country"`
}

// ToTransfer copies a stored address into its transfer representation.
func ToTransfer(a Address) dto.Address {
	return dto.Address{
		Id:      a.Id,
		Name:    a.Name,
		Phone:   a.Phone,
		Email:   a.Email,
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
}

// FromTransfer copies a transfer representation into a storable address.
func FromTransfer(d dto.Address) Address {
	return Address{
		Id:      d.Id,
		Name:    d.Name,
		Phone:   d.Phone,
		Email:   d.Email,
		Street:  d.Street,
		City:    d.City,
		State:   d.State,
		ZipCode: d.ZipCode,
		Country: d.Country,
	}
}

// ToTransferList converts a list of stored addresses. The result is never nil, so that an empty
// list is rendered as [] rather than null.
func ToTransferList(addresses []Address) []dto.Address {
	result := make([]dto.Address, 0, len(addresses))
	for _, a := range addresses {
		result = append(result, ToTransfer(a))
	}
	return result
}
