package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
)

// GormStore implements Store on SQLite or Postgres.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open connects to dsn and migrates the schema. A DSN starting with
// postgres:// or postgresql://, or containing host=, selects Postgres;
// anything else is treated as a SQLite file path.
func Open(dsn string, log zerolog.Logger) (*GormStore, error) {
	s, err := Connect(dsn, log)
	if err != nil {
		return nil, err
	}
	if err := s.db.AutoMigrate(
		&model.Organization{},
		&model.User{},
		&model.Namespace{},
		&model.Group{},
		&model.Project{},
		&model.Membership{},
	); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return s, nil
}

// Connect opens dsn without touching the schema.
func Connect(dsn string, log zerolog.Logger) (*GormStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store dsn is required")
	}

	dialector, isSQLite := dialectorFor(dsn)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		// SQLite allows one writer; serialize in the pool instead of
		// surfacing SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	return &GormStore{db: db}, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=")
}

// SQLiteFile returns the database file a SQLite dsn points at. ok is false
// for Postgres and in-memory DSNs.
func SQLiteFile(dsn string) (path string, ok bool) {
	if isPostgres(dsn) {
		return "", false
	}
	path, _, _ = strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return "", false
	}
	return path, true
}

func dialectorFor(dsn string) (gorm.Dialector, bool) {
	if isPostgres(dsn) {
		return postgres.Open(dsn), false
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000"
	}
	return sqlite.Open(dsn), true
}

type gormWriter struct{ log zerolog.Logger }

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn().Msgf(format, args...)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---------------- Organizations ----------------

func (s *GormStore) FindOrganizationByPath(ctx context.Context, path string) (*model.Organization, error) {
	var o model.Organization
	return first(s.db.WithContext(ctx).Where("path = ?", path), &o)
}

func (s *GormStore) FindOrganizationByID(ctx context.Context, id int64) (*model.Organization, error) {
	var o model.Organization
	return first(s.db.WithContext(ctx).Where("id = ?", id), &o)
}

func (s *GormStore) FirstOrganization(ctx context.Context) (*model.Organization, error) {
	var o model.Organization
	return first(s.db.WithContext(ctx).Order("id"), &o)
}

func (s *GormStore) CreateOrganization(ctx context.Context, org *model.Organization) error {
	if err := validateStruct(org, ""); err != nil {
		return err
	}
	return classifyUnique(s.db.WithContext(ctx).Create(org).Error)
}

// ---------------- Users ----------------

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	return first(s.db.WithContext(ctx).Where("username = ?", username), &u)
}

func (s *GormStore) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	return first(s.db.WithContext(ctx).Where("id = ?", id), &u)
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User, ns *model.Namespace) error {
	ns.Type = model.NamespaceUser
	ns.OrganizationID = u.OrganizationID
	if err := validateAll(validateStruct(u, ""), validateStruct(ns, "Namespace")); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		ns.OwnerID = &u.ID
		return tx.Create(ns).Error
	})
	if err != nil {
		u.ID, ns.ID, ns.OwnerID = 0, 0, nil
	}
	return classifyUnique(err)
}

// ---------------- Namespaces ----------------

func (s *GormStore) FindNamespaceByID(ctx context.Context, id int64) (*model.Namespace, error) {
	var n model.Namespace
	return first(s.db.WithContext(ctx).Where("id = ?", id), &n)
}

func (s *GormStore) FindNamespaceByPath(ctx context.Context, path string) (*model.Namespace, error) {
	var n model.Namespace
	return first(s.db.WithContext(ctx).Where("path = ?", path), &n)
}

func (s *GormStore) FindPersonalNamespace(ctx context.Context, userID int64) (*model.Namespace, error) {
	var n model.Namespace
	return first(s.db.WithContext(ctx).Where("owner_id = ? AND type = ?", userID, model.NamespaceUser), &n)
}

// ---------------- Groups ----------------

func (s *GormStore) FindGroupByPath(ctx context.Context, path string) (*model.Group, error) {
	var g model.Group
	return first(s.db.WithContext(ctx).Where("path = ?", path), &g)
}

func (s *GormStore) CreateGroup(ctx context.Context, g *model.Group, ns *model.Namespace) error {
	ns.Type = model.NamespaceGroup
	ns.OrganizationID = g.OrganizationID
	if err := validateAll(validateStruct(g, ""), validateStruct(ns, "Namespace")); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The group row goes first so a lost race trips idx_groups_path,
		// not the namespace index.
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		ns.GroupID = &g.ID
		return tx.Create(ns).Error
	})
	if err != nil {
		g.ID, ns.ID, ns.GroupID = 0, 0, nil
	}
	return classifyUnique(err)
}

// ---------------- Projects ----------------

func (s *GormStore) FindProjectByFullPath(ctx context.Context, fullPath string) (*model.Project, error) {
	var p model.Project
	return first(s.db.WithContext(ctx).Where("full_path = ?", fullPath), &p)
}

func (s *GormStore) CreateProject(ctx context.Context, p *model.Project) error {
	if err := validateStruct(p, ""); err != nil {
		return err
	}
	return classifyUnique(s.db.WithContext(ctx).Create(p).Error)
}

// ---------------- Memberships ----------------

func (s *GormStore) FindMembership(ctx context.Context, userID, groupID int64) (*model.Membership, error) {
	var m model.Membership
	return first(s.db.WithContext(ctx).Where("user_id = ? AND group_id = ?", userID, groupID), &m)
}

func (s *GormStore) CreateMembership(ctx context.Context, m *model.Membership) error {
	if err := validateStruct(m, ""); err != nil {
		return err
	}
	return classifyUnique(s.db.WithContext(ctx).Create(m).Error)
}

// ---------------- Helpers ----------------

func first[T any](q *gorm.DB, dst *T) (*T, error) {
	if err := q.First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dst, nil
}

func validateAll(errs ...error) error {
	var msgs []string
	for _, err := range errs {
		var ve *ValidationError
		if errors.As(err, &ve) {
			msgs = append(msgs, ve.Messages...)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}
