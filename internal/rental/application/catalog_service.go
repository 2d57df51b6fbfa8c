package application

import (
	"context"
	"errors"
	"time"

	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

// CatalogService implements the application layer for users, properties, and
// rooms. Catalog entities are pure data with no state transitions; writes
// still run through the Atomic pattern so ownership checks and inserts share
// one transaction.
type CatalogService struct {
	dataStore domain.AtomicExecutor
	repos     domain.Repositories
}

// NewCatalogService creates a new CatalogService.
// The dataStore must implement both AtomicExecutor and Repositories interfaces.
func NewCatalogService(dataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}) *CatalogService {
	return &CatalogService{
		dataStore: dataStore,
		repos:     dataStore,
	}
}

// RegisterUserRequest represents a request to register an account.
// PasswordHash is produced by the out-of-scope credential layer and stored opaquely.
type RegisterUserRequest struct {
	Role         domain.Role
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// RegisterUserResponse represents the response from registering an account.
type RegisterUserResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// RegisterUser registers a student or owner account.
// Fails with domain.ErrEmailTaken when the email is already registered.
func (s *CatalogService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*RegisterUserResponse, error) {
	var result *RegisterUserResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		user, err := domain.NewUser(req.Role, req.Name, req.Email, req.Phone, req.PasswordHash, time.Now())
		if err != nil {
			return err
		}

		id, err := repos.Users().Create(ctx, user)
		if err != nil {
			return err
		}

		result = &RegisterUserResponse{
			UserID: id.String(),
			Role:   string(req.Role),
		}

		logging.InfoContext(ctx, "User registered",
			"user_id", id.String(),
			"role", string(req.Role),
		)
		return nil
	})

	return result, err
}

// AddPropertyRequest represents a request to list a property.
type AddPropertyRequest struct {
	Identity    domain.Identity
	Name        string
	Address     string
	City        string
	Pincode     string
	Description string
}

// AddPropertyResponse represents the response from listing a property.
type AddPropertyResponse struct {
	PropertyID string `json:"property_id"`
}

// AddProperty lists a new property owned by the caller.
// Requires the owner role; the owner is fixed at creation.
func (s *CatalogService) AddProperty(ctx context.Context, req AddPropertyRequest) (*AddPropertyResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	var result *AddPropertyResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		property, err := domain.NewProperty(req.Identity.UserID, req.Name, req.Address, req.City, req.Pincode, req.Description, time.Now())
		if err != nil {
			return err
		}

		id, err := repos.Properties().Create(ctx, property)
		if err != nil {
			return err
		}

		result = &AddPropertyResponse{PropertyID: id.String()}

		logging.InfoContext(ctx, "Property listed",
			"property_id", id.String(),
			"owner_id", req.Identity.UserID.String(),
		)
		return nil
	})

	return result, err
}

// AddRoomRequest represents a request to add a room to a property.
type AddRoomRequest struct {
	Identity    domain.Identity
	PropertyID  domain.PropertyID
	RoomNo      string
	RoomType    string
	BedCapacity int
	Rent        types.Money
	Deposit     types.Money
	Sharing     int
}

// AddRoomResponse represents the response from adding a room.
type AddRoomResponse struct {
	RoomID string `json:"room_id"`
}

// AddRoom adds a room to a property the caller owns.
// Fails with domain.ErrForbidden when the property belongs to another owner.
func (s *CatalogService) AddRoom(ctx context.Context, req AddRoomRequest) (*AddRoomResponse, error) {
	if err := domain.Authorize(req.Identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	var result *AddRoomResponse

	err := s.dataStore.Atomic(ctx, func(repos domain.Repositories) error {
		property, err := repos.Properties().FindByID(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		if err := domain.AuthorizeOwnership(req.Identity, domain.RoleOwner, property.OwnerID()); err != nil {
			return err
		}

		room, err := domain.NewRoom(req.PropertyID, req.RoomNo, req.RoomType, req.BedCapacity, req.Rent, req.Deposit, req.Sharing, time.Now())
		if err != nil {
			return err
		}

		id, err := repos.Rooms().Create(ctx, room)
		if err != nil {
			return err
		}

		result = &AddRoomResponse{RoomID: id.String()}

		logging.InfoContext(ctx, "Room added",
			"room_id", id.String(),
			"property_id", req.PropertyID.String(),
		)
		return nil
	})

	return result, err
}

// PropertyView is the property projection served to browsing users.
type PropertyView struct {
	PropertyID  string `json:"property_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Pincode     string `json:"pincode,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListProperties retrieves every listed property for a browsing student.
// Degrades to an empty list when the store is unavailable.
func (s *CatalogService) ListProperties(ctx context.Context, identity domain.Identity) ([]PropertyView, error) {
	if err := domain.Authorize(identity, domain.RoleStudent); err != nil {
		return nil, err
	}

	properties, err := s.repos.Properties().ListAll(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty property list", "error", err)
			return []PropertyView{}, nil
		}
		return nil, err
	}

	return toPropertyViews(properties), nil
}

// ListOwnProperties retrieves the caller's properties.
// Degrades to an empty list when the store is unavailable.
func (s *CatalogService) ListOwnProperties(ctx context.Context, identity domain.Identity) ([]PropertyView, error) {
	if err := domain.Authorize(identity, domain.RoleOwner); err != nil {
		return nil, err
	}

	properties, err := s.repos.Properties().ListByOwner(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty property list", "error", err)
			return []PropertyView{}, nil
		}
		return nil, err
	}

	return toPropertyViews(properties), nil
}

func toPropertyViews(properties []*domain.Property) []PropertyView {
	views := make([]PropertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, PropertyView{
			PropertyID:  p.ID().String(),
			Name:        p.Name(),
			Address:     p.Address(),
			City:        p.City(),
			Pincode:     p.Pincode(),
			Description: p.Description(),
		})
	}
	return views
}

// RoomView is the room projection with derived occupancy.
type RoomView struct {
	RoomID         string      `json:"room_id"`
	RoomNo         string      `json:"room_no"`
	RoomType       string      `json:"room_type"`
	BedCapacity    int         `json:"bed_capacity"`
	Rent           types.Money `json:"rent"`
	Deposit        types.Money `json:"deposit"`
	Sharing        int         `json:"sharing"`
	ActiveStudents int         `json:"active_students"`
}

// ListRoomsRequest represents a request to list a property's rooms.
type ListRoomsRequest struct {
	Identity   domain.Identity
	PropertyID domain.PropertyID
}

// ListRooms retrieves a property's rooms with derived occupancy counts.
// Students may browse any property; owners only their own.
func (s *CatalogService) ListRooms(ctx context.Context, req ListRoomsRequest) ([]RoomView, error) {
	if req.Identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	property, err := s.repos.Properties().FindByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	switch req.Identity.Role {
	case domain.RoleStudent:
		// unrestricted browsing
	case domain.RoleOwner:
		if err := domain.AuthorizeOwnership(req.Identity, domain.RoleOwner, property.OwnerID()); err != nil {
			return nil, err
		}
	default:
		return nil, domain.ErrRoleMismatch
	}

	occupancies, err := s.repos.Rooms().ListByProperty(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			logging.WarnContext(ctx, "Store unavailable, serving empty room list", "error", err)
			return []RoomView{}, nil
		}
		return nil, err
	}

	views := make([]RoomView, 0, len(occupancies))
	for _, o := range occupancies {
		views = append(views, RoomView{
			RoomID:         o.Room.ID().String(),
			RoomNo:         o.Room.RoomNo(),
			RoomType:       o.Room.RoomType(),
			BedCapacity:    o.Room.BedCapacity(),
			Rent:           o.Room.Rent(),
			Deposit:        o.Room.Deposit(),
			Sharing:        o.Room.Sharing(),
			ActiveStudents: o.ActiveStudents,
		})
	}
	return views, nil
}
