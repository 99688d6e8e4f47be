// Package state persists session state to a directory of human-readable
// files and restores it across process restarts.
//
// Layout under the state dir:
//
//	session.json                     current session (atomic snapshot)
//	conversation.txt                 append-only transcript log
//	tasks/pending.json               queued tasks
//	tasks/completed.json             finished tasks
//	tasks/current.txt                human-readable progress
//	history/<id>.json                archived sessions
//	history/<id>_conversation.txt    archived transcripts
//	session.lock                     exclusive owner lock
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gamasenninn/mcp-agent/internal/filelock"
	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Store owns the state directory for one engine process. Opening the store
// acquires the session lock; a second process opening the same directory
// fails with SessionLockError.
type Store struct {
	dir  string
	lock *filelock.SessionLock
	log  logger.Logger
}

// Open prepares the state directory and takes the exclusive session lock.
func Open(dir string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	for _, sub := range []string{dir, filepath.Join(dir, "tasks"), filepath.Join(dir, "history")} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory %s: %w", sub, err)
		}
	}
	lock, err := filelock.Acquire(filepath.Join(dir, "session.lock"))
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, lock: lock, log: log}, nil
}

// Dir returns the state directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) sessionFile() string      { return filepath.Join(s.dir, "session.json") }
func (s *Store) conversationFile() string { return filepath.Join(s.dir, "conversation.txt") }
func (s *Store) pendingFile() string      { return filepath.Join(s.dir, "tasks", "pending.json") }
func (s *Store) completedFile() string    { return filepath.Join(s.dir, "tasks", "completed.json") }
func (s *Store) currentFile() string      { return filepath.Join(s.dir, "tasks", "current.txt") }
func (s *Store) historyDir() string       { return filepath.Join(s.dir, "history") }

// Create starts a new active session and snapshots it.
func (s *Store) Create() (*models.Session, error) {
	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Status:    models.SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Snapshot(sess); err != nil {
		return nil, err
	}
	if err := s.appendTranscript(fmt.Sprintf("=== session started: %s ===", sess.ID)); err != nil {
		return nil, err
	}
	s.log.LogDebug(fmt.Sprintf("created session %s", sess.ID))
	return sess, nil
}

// Load restores the session with the given id from session.json. An empty
// id loads whatever session is current. A missing file or an id mismatch
// yields ErrSessionNotFound; an unreadable file yields
// StateCorruptionError.
func (s *Store) Load(id string) (*models.Session, error) {
	data, err := os.ReadFile(s.sessionFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrSessionNotFound
		}
		return nil, &models.StateCorruptionError{Path: s.sessionFile(), Err: err}
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &models.StateCorruptionError{Path: s.sessionFile(), Err: err}
	}
	if id != "" && sess.ID != id {
		return nil, models.ErrSessionNotFound
	}

	// Any task left Executing by a crash becomes Pending again so resume
	// can re-run it.
	for _, task := range sess.Pending {
		if task.Status == models.TaskExecuting || task.Status == models.TaskRetryPending {
			task.Status = models.TaskPending
			task.Touch()
		}
	}
	sess.Touch()
	if err := s.Snapshot(&sess); err != nil {
		return nil, err
	}
	if err := s.appendTranscript(fmt.Sprintf("=== session restored: %s ===", sess.ID)); err != nil {
		return nil, err
	}
	s.log.LogDebug(fmt.Sprintf("restored session %s (%d pending)", sess.ID, len(sess.Pending)))
	return &sess, nil
}

// AppendEntry records a conversation turn in the session and the transcript
// log, then snapshots.
func (s *Store) AppendEntry(sess *models.Session, role, text string) error {
	sess.Conversation = append(sess.Conversation, models.Entry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if err := s.appendTranscript(fmt.Sprintf("[%s] %s", strings.ToUpper(role), text)); err != nil {
		return err
	}
	return s.Snapshot(sess)
}

// appendTranscript appends one timestamped line to conversation.txt. The
// file is append-only, so a plain O_APPEND write with sync is crash-safe.
func (s *Store) appendTranscript(message string) error {
	f, err := os.OpenFile(s.conversationFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return f.Sync()
}

// Snapshot writes session.json, tasks/pending.json, tasks/completed.json,
// and tasks/current.txt. Each file is written atomically, so a crash
// between writes leaves every file individually consistent.
func (s *Store) Snapshot(sess *models.Session) error {
	sess.Touch()

	sessionData, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := filelock.AtomicWrite(s.sessionFile(), sessionData); err != nil {
		return err
	}

	pendingData, err := json.MarshalIndent(orEmpty(sess.Pending), "", "  ")
	if err != nil {
		return fmt.Errorf("encode pending tasks: %w", err)
	}
	if err := filelock.AtomicWrite(s.pendingFile(), pendingData); err != nil {
		return err
	}

	completedData, err := json.MarshalIndent(orEmpty(sess.Completed), "", "  ")
	if err != nil {
		return fmt.Errorf("encode completed tasks: %w", err)
	}
	if err := filelock.AtomicWrite(s.completedFile(), completedData); err != nil {
		return err
	}

	return filelock.AtomicWrite(s.currentFile(), []byte(renderCurrent(sess)))
}

func orEmpty(tasks []*models.Task) []*models.Task {
	if tasks == nil {
		return []*models.Task{}
	}
	return tasks
}

// renderCurrent builds the human-readable progress file.
func renderCurrent(sess *models.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current request: %s\n", sess.Query)
	fmt.Fprintf(&b, "Intent: %s\n", sess.Intent)
	fmt.Fprintf(&b, "Pending tasks: %d\n", len(sess.Pending))
	fmt.Fprintf(&b, "Completed tasks: %d\n\n", len(sess.Completed))

	if len(sess.Pending) > 0 {
		b.WriteString("=== Pending ===\n")
		for i, task := range sess.Pending {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, task.Status, task.Description)
			fmt.Fprintf(&b, "   tool: %s\n", task.Tool)
			fmt.Fprintf(&b, "   created: %s\n\n", task.CreatedAt.Format(time.RFC3339))
		}
	}
	return b.String()
}

// Archive copies the session record and its transcript into the history
// directory and marks the session archived.
func (s *Store) Archive(sess *models.Session) error {
	sess.Status = models.SessionArchived
	sess.Touch()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	archivePath := filepath.Join(s.historyDir(), sess.ID+".json")
	if err := filelock.AtomicWrite(archivePath, data); err != nil {
		return err
	}

	if transcript, err := os.ReadFile(s.conversationFile()); err == nil {
		convPath := filepath.Join(s.historyDir(), sess.ID+"_conversation.txt")
		if err := filelock.AtomicWrite(convPath, transcript); err != nil {
			return err
		}
	}
	s.log.LogInfo(fmt.Sprintf("archived session %s", sess.ID))
	return nil
}

// Clear archives the current session and removes the live state files so
// the next Create starts fresh.
func (s *Store) Clear(sess *models.Session) error {
	if sess != nil {
		if err := s.Archive(sess); err != nil {
			return err
		}
	}
	for _, path := range []string{s.sessionFile(), s.conversationFile(), s.pendingFile(), s.completedFile(), s.currentFile()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

// Transcript returns the raw conversation.txt content, or the archived
// transcript when id names an archived session.
func (s *Store) Transcript(id string) ([]byte, error) {
	archived := filepath.Join(s.historyDir(), id+"_conversation.txt")
	if data, err := os.ReadFile(archived); err == nil {
		return data, nil
	}
	data, err := os.ReadFile(s.conversationFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrSessionNotFound
		}
		return nil, err
	}
	return data, nil
}

// LoadArchived reads an archived session record from the history directory.
func (s *Store) LoadArchived(id string) (*models.Session, error) {
	path := filepath.Join(s.historyDir(), id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrSessionNotFound
		}
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &models.StateCorruptionError{Path: path, Err: err}
	}
	return &sess, nil
}

// SessionInfo summarizes one session for listings.
type SessionInfo struct {
	ID        string
	Status    models.SessionStatus
	UpdatedAt time.Time
	Pending   int
	Completed int
	Current   bool
}

// List returns the current session (if any) followed by archived sessions,
// newest first. Unreadable archive entries are skipped.
func (s *Store) List() ([]SessionInfo, error) {
	var infos []SessionInfo

	if sess, err := s.Load(""); err == nil {
		infos = append(infos, SessionInfo{
			ID:        sess.ID,
			Status:    sess.Status,
			UpdatedAt: sess.UpdatedAt,
			Pending:   len(sess.Pending),
			Completed: len(sess.Completed),
			Current:   true,
		})
	} else if !errorsIsNotFound(err) {
		return nil, err
	}

	entries, err := os.ReadDir(s.historyDir())
	if err != nil {
		return nil, fmt.Errorf("read history directory: %w", err)
	}
	var archived []SessionInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		sess, err := s.LoadArchived(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		archived = append(archived, SessionInfo{
			ID:        sess.ID,
			Status:    sess.Status,
			UpdatedAt: sess.UpdatedAt,
			Pending:   len(sess.Pending),
			Completed: len(sess.Completed),
		})
	}
	sort.Slice(archived, func(i, j int) bool {
		return archived[i].UpdatedAt.After(archived[j].UpdatedAt)
	})
	return append(infos, archived...), nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, models.ErrSessionNotFound)
}

// Close releases the session lock.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Release()
	s.lock = nil
	return err
}
