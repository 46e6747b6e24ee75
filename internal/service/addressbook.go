package service

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/address-book-service/internal/model"
	dto "gitlab.com/dirk.krummacker/address-book-service/pkg/model"
)

// Store is the storage the address book works on. It is implemented by repository.Repository.
type Store interface {
	FindAll(ctx context.Context) ([]model.Address, error)
	FindByID(ctx context.Context, id int64) (model.Address, bool, error)
	Save(ctx context.Context, address model.Address) (model.Address, error)
	DeleteByID(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	FindByNameContainingIgnoreCase(ctx context.Context, name string) ([]model.Address, error)
	FindByCity(ctx context.Context, city string) ([]model.Address, error)
}

// Service implements the address book operations on top of a Store. It converts between the
// stored addresses and their transfer representation.
type Service struct {
	store Store
	log   *zap.Logger
}

// NewService creates the address book service.
func NewService(store Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// GetAllAddresses returns all addresses.
func (s *Service) GetAllAddresses(ctx context.Context) ([]dto.Address, error) {
	addresses, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.ToTransferList(addresses), nil
}

// GetAddressByID returns the address with the given id. The boolean result is false if there is
// no such address.
func (s *Service) GetAddressByID(ctx context.Context, id int64) (dto.Address, bool, error) {
	address, found, err := s.store.FindByID(ctx, id)
	if err != nil || !found {
		return dto.Address{}, false, err
	}
	return model.ToTransfer(address), true, nil
}

// CreateAddress stores a new address. An id in the submitted address is ignored.
func (s *Service) CreateAddress(ctx context.Context, address dto.Address) (dto.Address, error) {
	entity := model.FromTransfer(address)
	entity.Id = 0
	saved, err := s.store.Save(ctx, entity)
	if err != nil {
		return dto.Address{}, err
	}
	s.log.Info("Created address", zap.Int64("id", saved.Id))
	return model.ToTransfer(saved), nil
}

// UpdateAddress overwrites all fields of the address with the given id. The boolean result is
// false if there is no such address.
func (s *Service) UpdateAddress(ctx context.Context, id int64, address dto.Address) (dto.Address, bool, error) {
	existing, found, err := s.store.FindByID(ctx, id)
	if err != nil || !found {
		return dto.Address{}, false, err
	}
	existing.Name = address.Name
	existing.Phone = address.Phone
	existing.Email = address.Email
	existing.Street = address.Street
	existing.City = address.City
	existing.State = address.State
	existing.ZipCode = address.ZipCode
	existing.Country = address.Country
	updated, err := s.store.Save(ctx, existing)
	if err != nil {
		return dto.Address{}, false, err
	}
	s.log.Info("Updated address", zap.Int64("id", updated.Id))
	return model.ToTransfer(updated), true, nil
}

// DeleteAddress removes the address with the given id. It returns false if there is no such
// address.
func (s *Service) DeleteAddress(ctx context.Context, id int64) (bool, error) {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil || !exists {
		return false, err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return false, err
	}
	s.log.Info("Deleted address", zap.Int64("id", id))
	return true, nil
}

// SearchByName returns all addresses whose name contains the given text, ignoring case.
func (s *Service) SearchByName(ctx context.Context, name string) ([]dto.Address, error) {
	addresses, err := s.store.FindByNameContainingIgnoreCase(ctx, name)
	if err != nil {
		return nil, err
	}
	return model.ToTransferList(addresses), nil
}

// GetAddressesByCity returns all addresses in exactly the given city.
func (s *Service) GetAddressesByCity(ctx context.Context, city string) ([]dto.Address, error) {
	addresses, err := s.store.FindByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return model.ToTransferList(addresses), nil
}
