// Package backup uploads encrypted database snapshots to S3-compatible
// storage on a cron schedule.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"

	"github.com/rfinnegan/chorewheel/internal/config"
	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/store"
)

// s3Client is the subset of the S3 API the manager uses, an interface for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status is the manager's current state, exposed over the API.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// Manager runs scheduled encrypted backups and serves restore and download
// requests.
type Manager struct {
	mu     sync.RWMutex
	status Status

	cfg    config.BackupConfig
	dbPath string
	db     *sql.DB
	store  *store.BackupStore
	client s3Client
	cron   *cron.Cron
	logger *slog.Logger
}

func NewManager(cfg config.BackupConfig, dbPath string, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		dbPath: dbPath,
		db:     db,
		store:  bs,
		status: Status{State: StateDisabled},
		logger: logger.With("component", "backup"),
	}
	if cfg.Enabled() {
		m.client = newS3Client(cfg)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg config.BackupConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start schedules backups per the configured cron expression. No-op when
// backups are disabled.
func (m *Manager) Start(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	m.cron = cron.New()
	_, err := m.cron.AddFunc(m.cfg.Schedule, func() {
		if _, err := m.Run(ctx); err != nil {
			m.logger.Error("scheduled backup", "error", err)
		}
		if err := m.Cleanup(ctx); err != nil {
			m.logger.Error("backup cleanup", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backups: %w", err)
	}
	m.cron.Start()
	m.logger.Info("backups scheduled", "spec", m.cfg.Schedule, "bucket", m.cfg.Bucket)
	return nil
}

// Stop halts the cron runner and waits for an in-flight backup to finish.
func (m *Manager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) fail(recordID int64, stage string, err error) error {
	wrapped := fmt.Errorf("%s: %w", stage, err)
	if recordID != 0 {
		if uerr := m.store.UpdateStatus(recordID, model.BackupStatusFailed, wrapped.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: wrapped.Error()})
	return wrapped
}

// Run performs one backup: checkpoint the WAL, copy the database, encrypt
// the copy, and upload it. Returns the backup record id.
func (m *Manager) Run(ctx context.Context) (int64, error) {
	if m.client == nil {
		return 0, fmt.Errorf("backups not configured")
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("backup-%s.db.enc", timestamp)
	s3Key := "backups/" + filename

	record, err := m.store.Create(filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	if err := m.store.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		m.logger.Warn("mark backup uploading", "error", err)
	}

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, fmt.Sprintf("chorewheel-backup-%d.db", record.ID))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("chorewheel-backup-%d.db.enc", record.ID))
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return 0, m.fail(record.ID, "wal checkpoint", err)
	}
	if err := copyFile(m.dbPath, dbCopy); err != nil {
		return 0, m.fail(record.ID, "copy database", err)
	}
	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase); err != nil {
		return 0, m.fail(record.ID, "encrypt", err)
	}

	size, err := m.upload(ctx, encFile, s3Key)
	if err != nil {
		return 0, m.fail(record.ID, "upload", err)
	}

	if err := m.store.MarkCompleted(record.ID, size); err != nil {
		m.logger.Warn("mark backup completed", "error", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", s3Key, "size_bytes", size)
	return record.ID, nil
}

// upload puts the encrypted file, retrying transient failures with
// exponential backoff.
func (m *Manager) upload(ctx context.Context, path, key string) (int64, error) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))

	var size int64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			return err
		}
		size = stat.Size()

		_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.cfg.Bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(size),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return size, err
}

// Restore downloads a backup, decrypts and integrity-checks it, then
// replaces the database file. The process must be restarted afterwards so
// every connection reopens against the restored file.
func (m *Manager) Restore(ctx context.Context, backupID int64) error {
	if m.client == nil {
		return fmt.Errorf("backups not configured")
	}

	record, err := m.store.GetByID(backupID)
	if err != nil {
		return fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return fmt.Errorf("backup not found")
	}

	tmpDir := os.TempDir()
	encFile := filepath.Join(tmpDir, fmt.Sprintf("chorewheel-restore-%d.db.enc", backupID))
	decFile := filepath.Join(tmpDir, fmt.Sprintf("chorewheel-restore-%d.db", backupID))
	defer os.Remove(encFile)
	defer os.Remove(decFile)

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	out, err := os.Create(encFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, result.Body); err != nil {
		out.Close()
		return fmt.Errorf("write downloaded file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write downloaded file: %w", err)
	}

	if err := DecryptFile(encFile, decFile, m.cfg.Passphrase); err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}

	tmpDB, err := sql.Open("sqlite", decFile)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	var integrity string
	if err := tmpDB.QueryRow("PRAGMA integrity_check").Scan(&integrity); err != nil {
		tmpDB.Close()
		return fmt.Errorf("integrity check: %w", err)
	}
	tmpDB.Close()
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	if err := copyFile(decFile, m.dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(m.dbPath + "-wal")
	os.Remove(m.dbPath + "-shm")

	m.logger.Info("restore complete, restart required", "backup_id", backupID)
	return nil
}

// Download streams an encrypted backup from S3.
func (m *Manager) Download(ctx context.Context, backupID int64) (io.ReadCloser, int64, error) {
	if m.client == nil {
		return nil, 0, fmt.Errorf("backups not configured")
	}

	record, err := m.store.GetByID(backupID)
	if err != nil {
		return nil, 0, fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return nil, 0, fmt.Errorf("backup not found")
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("download from s3: %w", err)
	}

	return result.Body, record.SizeBytes, nil
}

// List returns recent backup records.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.store.List(limit)
}

// Cleanup deletes backups past the retention window, locally and in S3.
func (m *Manager) Cleanup(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	retention := m.cfg.RetentionDays
	if retention <= 0 {
		retention = 30
	}
	before := time.Now().UTC().AddDate(0, 0, -retention)

	keys, err := m.store.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete s3 object", "key", key, "error", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
