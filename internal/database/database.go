package database

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/eckcosting/internal/config"
)

const (
	embeddedDataPath = "./journal_data"
	embeddedPort     = 5434
	embeddedPassword = "postgres"
)

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
	log      *zap.Logger
}

// IsEmbedded reports whether cfg selects the bundled postgres: localhost and no password
func IsEmbedded(cfg config.DatabaseConfig) bool {
	return cfg.Host == "localhost" && cfg.Password == ""
}

// DSN renders the lib/pq style connection string for cfg
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
	)
}

// cleanupStaleEmbeddedPostgres removes a postmaster.pid left by a crash and
// stops the orphaned process if it is still alive
func cleanupStaleEmbeddedPostgres(log *zap.Logger) {
	pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")

	data, err := os.ReadFile(pidFile)
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if !scanner.Scan() {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		log.Warn("Could not parse PID from postmaster.pid", zap.Error(err))
		return
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		log.Info("Removing stale postmaster.pid", zap.Int("pid", pid))
		os.Remove(pidFile)
		return
	}

	// On Unix FindProcess always succeeds; signal 0 probes liveness
	if err := process.Signal(syscall.Signal(0)); err != nil {
		log.Info("Removing stale postmaster.pid", zap.Int("pid", pid))
		os.Remove(pidFile)
		return
	}

	log.Warn("Stopping orphaned PostgreSQL process", zap.Int("pid", pid))
	if err := process.Signal(syscall.SIGTERM); err != nil {
		log.Warn("Could not send SIGTERM", zap.Int("pid", pid), zap.Error(err))
	}

	for i := 0; i < 10; i++ {
		time.Sleep(500 * time.Millisecond)
		if err := process.Signal(syscall.Signal(0)); err != nil {
			os.Remove(pidFile)
			return
		}
	}

	log.Warn("Process did not stop gracefully, killing", zap.Int("pid", pid))
	process.Kill()
	time.Sleep(500 * time.Millisecond)
	os.Remove(pidFile)
}

func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect opens the journal database, starting an embedded postgres first
// when the config asks for one
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var embedded *embeddedpostgres.EmbeddedPostgres

	if IsEmbedded(cfg) {
		log.Info("Starting embedded PostgreSQL for the journal", zap.Int("port", embeddedPort))
		cleanupStaleEmbeddedPostgres(log)

		if isPortInUse(embeddedPort) {
			for i := 0; i < 6 && isPortInUse(embeddedPort); i++ {
				time.Sleep(500 * time.Millisecond)
			}
			if isPortInUse(embeddedPort) {
				return nil, fmt.Errorf("port %d is still in use by another process", embeddedPort)
			}
		}

		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password(embeddedPassword))

		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		cfg.Password = embeddedPassword
	} else {
		log.Info("Connecting to external PostgreSQL", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("Journal database connection established")
	return &DB{DB: db, embedded: embedded, log: log}, nil
}

// Close ensures the database connection and embedded process are shut down
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		db.log.Info("Stopping embedded PostgreSQL")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// AutoMigrate triggers GORM schema synchronization
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}
