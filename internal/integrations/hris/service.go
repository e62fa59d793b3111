package hris

import (
	"context"
	"fmt"

	"siap/internal/repository"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type DirectoryStore interface {
	repository.Transactor
	ListExternalUsers(ctx context.Context, tx *goqu.TxDatabase) ([]models.User, error)
	InsertExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User) (int, error)
	UpdateExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User, revoke bool) error
}

// SyncService mirrors the HR directory into the users table. The feed is a full snapshot:
// directory users absent from it are deactivated.
type SyncService struct {
	store  DirectoryStore
	source Source
	logger *zap.Logger
}

func NewSyncService(store DirectoryStore, source Source, logger *zap.Logger) *SyncService {
	return &SyncService{store: store, source: source, logger: logger}
}

func (s *SyncService) Run(ctx context.Context) (*SyncReport, error) {
	employees, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch directory: %w", err)
	}
	return s.Sync(ctx, employees)
}

func (s *SyncService) Sync(ctx context.Context, employees []Employee) (*SyncReport, error) {
	report := &SyncReport{}

	err := s.store.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		*report = SyncReport{}

		existing, err := s.store.ListExternalUsers(ctx, tx)
		if err != nil {
			return err
		}
		byExternalID := make(map[string]models.User, len(existing))
		for _, u := range existing {
			byExternalID[*u.ExternalID] = u
		}

		seen := map[string]bool{}
		for _, employee := range employees {
			if employee.Role == "" {
				employee.Role = roles.Employee
			}
			if reason := validate(employee); reason != "" {
				report.Skipped = append(report.Skipped, reason)
				continue
			}
			if seen[employee.ExternalID] {
				report.Skipped = append(report.Skipped, fmt.Sprintf("%s: duplicate external_id", employee.ExternalID))
				continue
			}
			seen[employee.ExternalID] = true

			current, ok := byExternalID[employee.ExternalID]
			if !ok {
				if err := s.create(ctx, tx, employee); err != nil {
					return err
				}
				report.Created++
				continue
			}

			next := current
			next.Username = employee.Username
			next.Fullname = employee.Fullname
			next.Email = employee.Email
			next.Role = employee.Role
			next.IsActive = employee.Active

			if sameDirectoryFields(current, next) {
				report.Unchanged++
				continue
			}

			revoke := current.Role != next.Role || (current.IsActive && !next.IsActive)
			if err := s.store.UpdateExternalUser(ctx, tx, &next, revoke); err != nil {
				return err
			}
			if current.IsActive && !next.IsActive {
				report.Deactivated++
			} else {
				report.Updated++
			}
		}

		for externalID, user := range byExternalID {
			if seen[externalID] || !user.IsActive {
				continue
			}
			user.IsActive = false
			if err := s.store.UpdateExternalUser(ctx, tx, &user, true); err != nil {
				return err
			}
			report.Deactivated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("HRIS sync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("deactivated", report.Deactivated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// create inserts a directory user with an unguessable password; an admin sets a real one.
func (s *SyncService) create(ctx context.Context, tx *goqu.TxDatabase, employee Employee) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	externalID := employee.ExternalID
	_, err = s.store.InsertExternalUser(ctx, tx, &models.User{
		Username:     employee.Username,
		Fullname:     employee.Fullname,
		Email:        employee.Email,
		PasswordHash: string(hash),
		Role:         employee.Role,
		IsActive:     employee.Active,
		ExternalID:   &externalID,
	})
	return err
}

func validate(employee Employee) string {
	switch {
	case employee.ExternalID == "":
		return fmt.Sprintf("%s: missing external_id", employee.Username)
	case employee.Username == "":
		return fmt.Sprintf("%s: missing username", employee.ExternalID)
	case !employee.Role.IsValid():
		return fmt.Sprintf("%s: unknown role %q", employee.ExternalID, employee.Role)
	}
	return ""
}

func sameDirectoryFields(a, b models.User) bool {
	return a.Username == b.Username &&
		a.Fullname == b.Fullname &&
		equalEmail(a.Email, b.Email) &&
		a.Role == b.Role &&
		a.IsActive == b.IsActive
}

func equalEmail(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
