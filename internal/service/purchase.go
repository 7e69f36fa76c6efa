package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sahanw/storefront-api/internal/dto"
	"github.com/sahanw/storefront-api/internal/model"
	"github.com/sahanw/storefront-api/internal/repository"
)

// Booking validation failures are distinct values so handlers can render
// field-level messages.
var (
	ErrPurchaseDateRequired = errors.New("purchase date is required")
	ErrPurchaseDateNotAhead = errors.New("purchase date must be in the future")
	ErrPurchaseDateSunday   = errors.New("purchase date cannot be on Sunday")
	ErrInvalidDeliveryTime  = errors.New("delivery time must be 10 AM, 11 AM, or 12 PM")
	ErrInvalidDistrict      = errors.New("invalid delivery location")
	ErrInvalidProductName   = errors.New("invalid product name")
	ErrQuantityOutOfRange   = errors.New("quantity must be between 1 and 100")
	ErrMessageTooLong       = errors.New("message cannot exceed 500 characters")

	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrPurchaseAccessDenied = errors.New("access denied")
)

var validDeliveryTimes = []string{"10 AM", "11 AM", "12 PM"}

var validDistricts = []string{
	"Colombo", "Gampaha", "Kalutara", "Kandy", "Matale", "Nuwara Eliya",
	"Galle", "Matara", "Hambantota", "Jaffna", "Vanni", "Batticaloa",
	"Digamadulla", "Trincomalee", "Kurunegala", "Puttalam", "Anuradhapura",
	"Polonnaruwa", "Badulla", "Moneragala", "Ratnapura", "Kegalle",
}

var validProductNames = []string{
	"Laptop", "Smartphone", "Tablet", "Desktop Computer", "Monitor",
	"Keyboard", "Mouse", "Headphones", "Speaker", "Camera",
	"Printer", "Router", "External Hard Drive", "USB Cable", "Power Bank",
}

const maxMessageLen = 500

var bookingValidationErrors = []error{
	ErrPurchaseDateRequired, ErrPurchaseDateNotAhead, ErrPurchaseDateSunday,
	ErrInvalidDeliveryTime, ErrInvalidDistrict, ErrInvalidProductName,
	ErrQuantityOutOfRange, ErrMessageTooLong,
}

// IsBookingValidationError reports whether err is one of the field-level
// booking rule violations.
func IsBookingValidationError(err error) bool {
	for _, e := range bookingValidationErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	now          func() time.Time
}

func NewPurchaseService(purchaseRepo repository.PurchaseRepository) *PurchaseService {
	return &PurchaseService{purchaseRepo: purchaseRepo, now: time.Now}
}

func (s *PurchaseService) Create(ctx context.Context, username string, req dto.CreatePurchaseRequest) (*model.PurchaseBooking, error) {
	booking := &model.PurchaseBooking{
		Username:         username,
		PurchaseDate:     req.PurchaseDate.Time(),
		DeliveryTime:     req.DeliveryTime,
		DeliveryLocation: req.DeliveryLocation,
		ProductName:      req.ProductName,
		Quantity:         req.Quantity,
		Message:          req.Message,
	}
	if err := s.validate(booking); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	return booking, nil
}

// GetByID enforces the ownership rule: a booking is only visible to the
// identity that created it. Mismatches are access-denied, not not-found.
func (s *PurchaseService) GetByID(ctx context.Context, id uuid.UUID, username string) (*model.PurchaseBooking, error) {
	booking, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	if booking == nil {
		return nil, ErrPurchaseNotFound
	}
	if booking.Username != username {
		return nil, ErrPurchaseAccessDenied
	}
	return booking, nil
}

func (s *PurchaseService) ListByUsername(ctx context.Context, username string) ([]model.PurchaseBooking, error) {
	return s.purchaseRepo.ListByUsername(ctx, username)
}

func (s *PurchaseService) ListUpcoming(ctx context.Context, username string) ([]model.PurchaseBooking, error) {
	return s.purchaseRepo.ListUpcoming(ctx, username, s.today())
}

func (s *PurchaseService) ListPast(ctx context.Context, username string) ([]model.PurchaseBooking, error) {
	return s.purchaseRepo.ListPast(ctx, username, s.today())
}

// Update applies the fields present in the request, re-validating each.
func (s *PurchaseService) Update(ctx context.Context, id uuid.UUID, username string, req dto.UpdatePurchaseRequest) (*model.PurchaseBooking, error) {
	booking, err := s.GetByID(ctx, id, username)
	if err != nil {
		return nil, err
	}

	if req.PurchaseDate != nil {
		booking.PurchaseDate = req.PurchaseDate.Time()
	}
	if req.DeliveryTime != nil {
		booking.DeliveryTime = *req.DeliveryTime
	}
	if req.DeliveryLocation != nil {
		booking.DeliveryLocation = *req.DeliveryLocation
	}
	if req.ProductName != nil {
		booking.ProductName = *req.ProductName
	}
	if req.Quantity != nil {
		booking.Quantity = *req.Quantity
	}
	if req.Message != nil {
		booking.Message = *req.Message
	}
	if err := s.validate(booking); err != nil {
		return nil, err
	}

	if err := s.purchaseRepo.Update(ctx, booking); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("update purchase: %w", err)
	}
	return booking, nil
}

func (s *PurchaseService) Delete(ctx context.Context, id uuid.UUID, username string) error {
	if _, err := s.GetByID(ctx, id, username); err != nil {
		return err
	}
	if err := s.purchaseRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("delete purchase: %w", err)
	}
	return nil
}

func (s *PurchaseService) Districts() []string    { return validDistricts }
func (s *PurchaseService) ProductNames() []string { return validProductNames }

func (s *PurchaseService) validate(b *model.PurchaseBooking) error {
	if b.PurchaseDate.IsZero() {
		return ErrPurchaseDateRequired
	}
	// Strictly after today: same-day delivery is not bookable.
	if !b.PurchaseDate.After(s.today()) {
		return ErrPurchaseDateNotAhead
	}
	if b.PurchaseDate.Weekday() == time.Sunday {
		return ErrPurchaseDateSunday
	}
	if !contains(validDeliveryTimes, b.DeliveryTime) {
		return ErrInvalidDeliveryTime
	}
	if !contains(validDistricts, b.DeliveryLocation) {
		return ErrInvalidDistrict
	}
	if !contains(validProductNames, b.ProductName) {
		return ErrInvalidProductName
	}
	if b.Quantity < 1 || b.Quantity > 100 {
		return ErrQuantityOutOfRange
	}
	if len(b.Message) > maxMessageLen {
		return ErrMessageTooLong
	}
	return nil
}

func (s *PurchaseService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
