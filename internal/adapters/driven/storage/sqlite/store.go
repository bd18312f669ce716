package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docchat/data/docchat.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docchat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docchat.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChatHistoryStore returns a ChatHistoryStore interface backed by this store.
func (s *Store) ChatHistoryStore() driven.ChatHistoryStore {
	return &chatHistoryStore{store: s}
}

// ProfileStore returns a ProfileStore interface backed by this store.
func (s *Store) ProfileStore() driven.ProfileStore {
	return &profileStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, session_id, filename, chunk_count, byte_size, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			filename = excluded.filename,
			chunk_count = excluded.chunk_count,
			byte_size = excluded.byte_size,
			active = excluded.active,
			updated_at = excluded.updated_at
	`, doc.ID, doc.SessionID, doc.Filename, doc.ChunkCount, doc.ByteSize,
		boolToInt(doc.Active), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID,
			chunk.Position, chunk.Content, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, session_id, filename, chunk_count, byte_size, active, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, content, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.Content, &embeddingBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
			&chunk.Content, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ListBySession returns all documents belonging to a session.
func (s *documentStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, filename, chunk_count, byte_size, active, created_at, updated_at
		FROM documents WHERE session_id = ?
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// SetActive updates a document's active flag.
func (s *documentStore) SetActive(ctx context.Context, id string, active bool) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET active = ?, updated_at = ? WHERE id = ?
	`, boolToInt(active), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating active flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Chat History Store ====================

// chatHistoryStore implements driven.ChatHistoryStore.
type chatHistoryStore struct {
	store *Store
}

var _ driven.ChatHistoryStore = (*chatHistoryStore)(nil)

// Append records a message at the end of the session's history.
func (s *chatHistoryStore) Append(ctx context.Context, msg *domain.ChatMessage) error {
	sourcesJSON, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, string(sourcesJSON), msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// List returns up to limit most recent messages in chronological order.
func (s *chatHistoryStore) List(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, sources, created_at
		FROM (
			SELECT seq, id, session_id, role, content, sources, created_at
			FROM messages WHERE session_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unbounded
	}

	rows, err := s.store.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage //nolint:prealloc // size unknown from query
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

// LastUserMessage returns the most recent user message for the session.
func (s *chatHistoryStore) LastUserMessage(ctx context.Context, sessionID string) (*domain.ChatMessage, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, session_id, role, content, sources, created_at
		FROM messages WHERE session_id = ? AND role = ?
		ORDER BY seq DESC LIMIT 1
	`, sessionID, domain.RoleUser)

	msg, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return msg, err
}

// DeleteLastAssistant removes the trailing assistant message, if the
// history ends with one.
func (s *chatHistoryStore) DeleteLastAssistant(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM messages WHERE seq = (
			SELECT seq FROM messages WHERE session_id = ?
			ORDER BY seq DESC LIMIT 1
		) AND role = ?
	`, sessionID, domain.RoleAssistant)
	if err != nil {
		return fmt.Errorf("deleting last assistant message: %w", err)
	}
	return nil
}

// Clear removes all history for a session.
func (s *chatHistoryStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	return nil
}

// Count returns the session's total message count.
func (s *chatHistoryStore) Count(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// ==================== Profile Store ====================

// profileStore implements driven.ProfileStore.
type profileStore struct {
	store *Store
}

var _ driven.ProfileStore = (*profileStore)(nil)

// Get retrieves a session's profile.
func (s *profileStore) Get(ctx context.Context, sessionID string) (*domain.Profile, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT session_id, persona, theme, voice_enabled, updated_at
		FROM profiles WHERE session_id = ?
	`, sessionID)

	var profile domain.Profile
	var voiceEnabled int
	if err := row.Scan(&profile.SessionID, &profile.Persona, &profile.Theme,
		&voiceEnabled, &profile.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}

	profile.VoiceEnabled = voiceEnabled != 0
	return &profile, nil
}

// Save stores or updates a profile.
func (s *profileStore) Save(ctx context.Context, profile *domain.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO profiles (session_id, persona, theme, voice_enabled, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			persona = excluded.persona,
			theme = excluded.theme,
			voice_enabled = excluded.voice_enabled,
			updated_at = excluded.updated_at
	`, profile.SessionID, profile.Persona, profile.Theme,
		boolToInt(profile.VoiceEnabled), profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// Delete removes a session's profile.
func (s *profileStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM profiles WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a document using the given scan function.
func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var active int

	if err := scan(&doc.ID, &doc.SessionID, &doc.Filename, &doc.ChunkCount,
		&doc.ByteSize, &active, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Active = active != 0
	return &doc, nil
}

// scanMessage scans a chat message using the given scan function.
func scanMessage(scan func(...any) error) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	var sourcesJSON sql.NullString

	if err := scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
		&sourcesJSON, &msg.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	if sourcesJSON.Valid && sourcesJSON.String != "" && sourcesJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
			return nil, fmt.Errorf("unmarshalling sources: %w", err)
		}
	}

	return &msg, nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
