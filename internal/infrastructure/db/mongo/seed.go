package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/toylibrary/lending-platform/internal/core/domain"
)

// Seed provisions a demo library with three accounts, a tier ladder, and a
// starter inventory. It is a no-op when the demo host already exists, so the
// command is safe to run repeatedly.
func Seed(ctx context.Context, db *mongo.Database) error {
	users := NewUserRepository(db)

	if _, err := users.FindByEmail(ctx, "host@example.com"); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	now := time.Now().UTC()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	libraryID := uuid.NewString()
	hostID := uuid.NewString()
	borrowerID := uuid.NewString()

	demoUsers := []*domain.User{
		{
			ID: hostID, Email: "host@example.com", FullName: "Harriet Walsh",
			PasswordHash: string(hash), Role: domain.RoleHost, LibraryID: libraryID,
			Status: domain.UserActive, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: borrowerID, Email: "borrower@example.com", FullName: "Ben Okafor",
			PasswordHash: string(hash), Role: domain.RoleBorrower,
			Status: domain.UserActive, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), Email: "admin@example.com", FullName: "Ada Lindqvist",
			PasswordHash: string(hash), Role: domain.RoleSuperUser,
			Status: domain.UserActive, CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, u := range demoUsers {
		if _, err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	libraries := NewLibraryRepository(db)
	if err := libraries.Create(ctx, &domain.Library{
		ID:           libraryID,
		Name:         "Sunshine Community Toy Library",
		Description:  "A volunteer-run toy library lending toys, games and puzzles.",
		Address:      "12 Meadow Lane, Springfield",
		ContactEmail: "hello@sunshinetoys.example.com",
		OwnerID:      hostID,
		Status:       domain.LibraryActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("seed library: %w", err)
	}

	settings := NewSettingsRepository(db)
	if err := settings.Save(ctx, domain.DefaultLibrarySettings(libraryID, now)); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	tiers := NewTierRepository(db)
	basicID := uuid.NewString()
	demoTiers := []*domain.MembershipTier{
		{
			ID: basicID, LibraryID: libraryID, Name: "Basic",
			Description: "Two toys at a time.", Price: 5, BillingInterval: "monthly",
			BorrowingLimit: 2, MaxLoanDurationDays: 14,
			Benefits:  []string{"2 simultaneous loans"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), LibraryID: libraryID, Name: "Premium",
			Description: "Five toys at a time and longer loans.", Price: 10, BillingInterval: "monthly",
			BorrowingLimit: 5, MaxLoanDurationDays: 21,
			Benefits:  []string{"5 simultaneous loans", "21-day loans"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), LibraryID: libraryID, Name: "Family Plus",
			Description: "For big households.", Price: 90, BillingInterval: "yearly",
			BorrowingLimit: 10, MaxLoanDurationDays: 28,
			Benefits:  []string{"10 simultaneous loans", "28-day loans", "priority holds"},
			CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, t := range demoTiers {
		if err := tiers.Create(ctx, t); err != nil {
			return fmt.Errorf("seed tier %s: %w", t.Name, err)
		}
	}

	members := NewMemberRepository(db)
	if err := members.Create(ctx, &domain.Member{
		ID:        uuid.NewString(),
		UserID:    borrowerID,
		LibraryID: libraryID,
		TierID:    basicID,
		Status:    domain.MemberActive,
		JoinDate:  now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("seed member: %w", err)
	}

	items := NewItemRepository(db)
	demoItems := []*domain.Item{
		{
			Name: "Wooden Train Set", Category: "vehicles", AgeRecommendation: "3-6",
			Description: "48-piece wooden railway with two engines.",
			Condition:   domain.ConditionExcellent, ReplacementValue: 45, Quantity: 2,
		},
		{
			Name: "Duplo Farm", Category: "building", AgeRecommendation: "2-5",
			Description: "Large-brick farm set with animals.",
			Condition:   domain.ConditionGood, ReplacementValue: 30, Quantity: 1,
		},
		{
			Name: "Catan Junior", Category: "board-games", AgeRecommendation: "6+",
			Description: "Island-building board game for younger players.",
			Condition:   domain.ConditionGood, ReplacementValue: 25, Quantity: 1,
		},
		{
			Name: "Balance Bike", Category: "outdoor", AgeRecommendation: "2-4",
			Description: "Lightweight aluminium balance bike.",
			Condition:   domain.ConditionFair, ReplacementValue: 80, Quantity: 1,
			LendingPeriodDays: 7,
		},
	}
	for _, it := range demoItems {
		it.ID = uuid.NewString()
		it.LibraryID = libraryID
		it.Status = domain.ItemAvailable
		it.AvailableQty = it.Quantity
		it.Barcode = fmt.Sprintf("TOY-%s", it.ID[:8])
		it.CreatedAt = now
		it.UpdatedAt = now
		if err := items.Create(ctx, it); err != nil {
			return fmt.Errorf("seed item %s: %w", it.Name, err)
		}
	}

	return nil
}

// EnsureIndexes bootstraps every collection's indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type indexer interface {
		EnsureIndexes(ctx context.Context) error
	}
	for _, r := range []indexer{
		NewUserRepository(db),
		NewItemRepository(db),
		NewLoanRepository(db),
		NewReservationRepository(db),
		NewMemberRepository(db),
		NewTierRepository(db),
		NewLibraryRepository(db),
		NewMessageRepository(db),
		NewNotificationRepository(db),
	} {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
