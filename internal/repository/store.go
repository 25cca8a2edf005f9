package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store exposes every repository bound to the same database handle.
type Store interface {
	Submissions() SubmissionRepository
	ComponentTypes() ComponentTypeRepository
	Revisions() RevisionRepository
	Analyses() AnalysisRepository
	Media() MediaRepository
	SubmissionLogs() SubmissionLogRepository
	Stats() StatsRepository
}

// UnitOfWork is a Store that can also open a transaction scope.
// The Store handed to fn is bound to the transaction; fn must not use the outer Store.
type UnitOfWork interface {
	Store
	Do(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db             *gorm.DB
	submissions    SubmissionRepository
	componentTypes ComponentTypeRepository
	revisions      RevisionRepository
	analyses       AnalysisRepository
	media          MediaRepository
	submissionLogs SubmissionLogRepository
	stats          StatsRepository
}

// NewUnitOfWork builds the gorm backed store.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) *gormStore {
	return &gormStore{
		db:             db,
		submissions:    NewSubmissionRepository(db),
		componentTypes: NewComponentTypeRepository(db),
		revisions:      NewRevisionRepository(db),
		analyses:       NewAnalysisRepository(db),
		media:          NewMediaRepository(db),
		submissionLogs: NewSubmissionLogRepository(db),
		stats:          NewStatsRepository(db),
	}
}

func (s *gormStore) Do(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormStore(tx))
	})
}

func (s *gormStore) Submissions() SubmissionRepository       { return s.submissions }
func (s *gormStore) ComponentTypes() ComponentTypeRepository { return s.componentTypes }
func (s *gormStore) Revisions() RevisionRepository           { return s.revisions }
func (s *gormStore) Analyses() AnalysisRepository            { return s.analyses }
func (s *gormStore) Media() MediaRepository                  { return s.media }
func (s *gormStore) SubmissionLogs() SubmissionLogRepository { return s.submissionLogs }
func (s *gormStore) Stats() StatsRepository                  { return s.stats }
