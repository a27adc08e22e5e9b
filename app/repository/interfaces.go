package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/connectwave/portal/app/models"
	"gorm.io/gorm"
)

// TransactionRepository defines the operations on the payment ledger. The
// ledger's unique reference constraint is the only concurrency primitive in
// the system; ClaimReference is its atomic-insert front door.
type TransactionRepository interface {
	ClaimReference(tx *models.Transaction) (bool, *models.Transaction, error)
	Finalize(tx *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
	ListByStatus(status string, offset, limit int) ([]models.Transaction, error)
	RecentFailures(since time.Time, limit int) ([]models.Transaction, error)
	CountByStatus(status string) (int64, error)
	SumAmountSince(since time.Time) (decimal.Decimal, error)
}

// CustomerRepository defines operations on the local subscriber shadow rows.
type CustomerRepository interface {
	UpsertByUsername(c *models.Customer) error
	GetByUsername(username string) (*models.Customer, error)
	GetByID(id uint) (*models.Customer, error)
	List(offset, limit int) ([]models.Customer, error)
	Count() (int64, error)
}

// AccountOwnerRepository defines operations on commission recipients.
type AccountOwnerRepository interface {
	Create(owner *models.AccountOwner) error
	GetActiveByUsername(ownerUsername string) (*models.AccountOwner, error)
	GetByID(id uint) (*models.AccountOwner, error)
	List(offset, limit int) ([]models.AccountOwner, error)
	Update(owner *models.AccountOwner) error
}

// LocationRepository defines operations on service locations.
type LocationRepository interface {
	GetByID(id uint) (*models.Location, error)
	GetActive() ([]models.Location, error)
}

// Repositories bundles all repository instances
type Repositories struct {
	Transaction  TransactionRepository
	Customer     CustomerRepository
	AccountOwner AccountOwnerRepository
	Location     LocationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Transaction:  NewTransactionRepository(db),
		Customer:     NewCustomerRepository(db),
		AccountOwner: NewAccountOwnerRepository(db),
		Location:     NewLocationRepository(db),
	}
}
