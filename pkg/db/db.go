package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mpostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qaforge/qatrack/config"
	"github.com/qaforge/qatrack/pkg/db/migrations"
	"github.com/qaforge/qatrack/pkg/models"
)

var gdb *gorm.DB

// Initialize opens the configured store. Postgres runs the embedded SQL
// migrations; the sqlite path auto-migrates the model set, which keeps
// local setups and CI free of a running database server.
func Initialize() error {
	cfg := config.GetDb()

	var err error
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		if err = migrateUp(dsn); err != nil {
			return err
		}
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		gdb, err = gorm.Open(sqlite.Open(cfg.Database), &gorm.Config{})
		if err == nil {
			err = MigrateModels(gdb)
		}
		if err == nil {
			err = Seed(gdb)
		}
	}
	if err != nil {
		return err
	}

	if cfg.DetailLog {
		gdb = gdb.Debug()
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return nil
}

func migrateUp(dsn string) error {
	pdb, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	driver, err := mpostgres.WithInstance(pdb, &mpostgres.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations.EmbeddedMigrations, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrateModels creates the full table set on the given connection. The
// handler test suites reuse it against in-memory sqlite.
func MigrateModels(g *gorm.DB) error {
	return g.AutoMigrate(
		&models.TestCase{},
		&models.TestStep{},
		&models.Requirement{},
		&models.TestCaseRequirement{},
		&models.TestPlan{},
		&models.TestExecution{},
		&models.Defect{},
		&models.TeamMember{},
		&models.Environment{},
		&models.Report{},
	)
}

// Seed inserts the reference rows a fresh store starts with: the baseline
// requirement catalog, the QA team roster, and the standard environments.
// Existing rows are left untouched.
func Seed(g *gorm.DB) error {
	requirements := []models.Requirement{
		{RequirementID: "REQ-001", Title: "User Authentication & Authorization", Description: "System must support secure user authentication", Category: "Security", Priority: "Critical"},
		{RequirementID: "REQ-002", Title: "Data Encryption & Security", Description: "All sensitive data must be encrypted", Category: "Security", Priority: "Critical"},
		{RequirementID: "REQ-003", Title: "Role-Based Access Control", Description: "Implement RBAC for system access", Category: "Security", Priority: "High"},
		{RequirementID: "REQ-004", Title: "Audit Trail & Logging", Description: "Comprehensive audit logging required", Category: "Compliance", Priority: "High"},
		{RequirementID: "REQ-005", Title: "HIPAA Compliance", Description: "Healthcare applications must be HIPAA compliant", Category: "Compliance", Priority: "Critical"},
		{RequirementID: "REQ-006", Title: "PCI-DSS Compliance", Description: "Payment processing must meet PCI-DSS", Category: "Compliance", Priority: "Critical"},
	}

	members := []models.TeamMember{
		{MemberID: "TM-001", Name: "Sarah Johnson", Email: "sarah.j@qatest.com", Role: "Senior QA Engineer", Specialization: "Real Estate"},
		{MemberID: "TM-002", Name: "Michael Chen", Email: "michael.c@qatest.com", Role: "QA Lead", Specialization: "Healthcare"},
		{MemberID: "TM-003", Name: "Alex Rodriguez", Email: "alex.r@qatest.com", Role: "QA Engineer", Specialization: "AI/ML"},
		{MemberID: "TM-004", Name: "David Kumar", Email: "david.k@qatest.com", Role: "Senior QA Engineer", Specialization: "Brokerage"},
		{MemberID: "TM-005", Name: "Emma Wilson", Email: "emma.w@qatest.com", Role: "QA Engineer", Specialization: "Food & Beverage"},
	}

	environments := []models.Environment{
		{EnvironmentID: "ENV-001", Name: "Development", Type: "Development", URL: "https://dev.qatest.com"},
		{EnvironmentID: "ENV-002", Name: "QA Testing", Type: "Testing", URL: "https://qa.qatest.com"},
		{EnvironmentID: "ENV-003", Name: "Staging", Type: "Staging", URL: "https://staging.qatest.com"},
		{EnvironmentID: "ENV-004", Name: "Production", Type: "Production", URL: "https://qatest.com"},
	}

	keepExisting := clause.OnConflict{DoNothing: true}
	if err := g.Clauses(keepExisting).Create(&requirements).Error; err != nil {
		return err
	}
	if err := g.Clauses(keepExisting).Create(&members).Error; err != nil {
		return err
	}
	return g.Clauses(keepExisting).Create(&environments).Error
}

func GetDb() *gorm.DB {
	return gdb
}
