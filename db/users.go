// ABOUTME: User and session database operations
// ABOUTME: Hashes passwords with bcrypt and issues opaque bearer tokens
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const userColumns = `id, name, email, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// CreateUser inserts user with a bcrypt hash of password.
func CreateUser(db *sql.DB, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.ID = uuid.NewString()
	user.Email = strings.TrimSpace(user.Email)
	if !user.Role.Valid() {
		user.Role = models.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.Exec(`
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, string(hash), string(user.Role), user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func GetUser(db *sql.DB, id string) (*models.User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// Authenticate returns the user owning email when password matches.
func Authenticate(db *sql.DB, email, password string) (*models.User, error) {
	var id, hash string
	err := db.QueryRow(`SELECT id, password_hash FROM users WHERE email = ?`, strings.TrimSpace(email)).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return GetUser(db, id)
}

// ChangePassword replaces the hash after checking current.
func ChangePassword(db *sql.DB, userID, current, next string) error {
	var hash string
	err := db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, userID).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	return setPassword(db, userID, next)
}

func setPassword(db *sql.DB, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = db.Exec(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, string(hash), time.Now().UTC(), userID)
	return err
}

type UserQuery struct {
	ListQuery
	Role string
}

func ListUsers(db *sql.DB, q UserQuery) ([]models.User, int, error) {
	q.Normalize()
	w := &where{}
	if q.Search != "" {
		p := likePattern(q.Search)
		w.add(`(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)`, p, p)
	}
	if q.Role != "" {
		w.add(`role = ?`, q.Role)
	}

	total, err := countRows(db, "FROM users", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(`SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY name COLLATE NOCASE LIMIT ? OFFSET ?`,
		append(w.args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// ShareableUsers lists every user except userID.
func ShareableUsers(db *sql.DB, userID string) ([]models.User, error) {
	rows, err := db.Query(`SELECT `+userColumns+` FROM users WHERE id != ? ORDER BY name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserPatch holds the fields an admin may change. Nil fields are kept.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Role     *models.Role
}

func UpdateUser(db *sql.DB, id string, p UserPatch) (*models.User, error) {
	u, err := GetUser(db, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = time.Now().UTC()

	_, err = db.Exec(`UPDATE users SET name = ?, email = ?, role = ?, updated_at = ? WHERE id = ?`,
		u.Name, u.Email, string(u.Role), u.UpdatedAt, id)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	if p.Password != nil {
		if err := setPassword(db, id, *p.Password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func DeleteUser(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func CountUsers(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CreateSession issues a new token for userID valid for ttl.
func CreateSession(db *sql.DB, userID string, ttl time.Duration) (string, error) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, now.Add(ttl), now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// SessionUser resolves a token to its user. Unknown or expired tokens yield nil.
func SessionUser(db *sql.DB, token string) (*models.User, error) {
	u, err := scanUser(db.QueryRow(`
		SELECT u.id, u.name, u.email, u.role, u.created_at, u.updated_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, time.Now().UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func DeleteSession(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// PurgeExpiredSessions removes stale tokens and reports how many were dropped.
func PurgeExpiredSessions(db *sql.DB) (int64, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
