package mysql

const reviewColumns = "id, county, town, estate, rating, title, body, author_name, author_email, status, deleted_at, created_at"

const insertReviewSQL = `
INSERT INTO reviews
  (id, county, town, estate, rating, title, body, author_name, author_email, status, deleted_at, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

// Row lock for a single moderation action.
const lockReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ? FOR UPDATE`

const updateReviewStateSQL = `UPDATE reviews SET status = ?, deleted_at = ? WHERE id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Public feed. The visibility rule lives here so no caller can forget it.
const listVisibleSQL = `
SELECT ` + reviewColumns + `
FROM reviews
WHERE county = ? AND town = ? AND estate = ?
  AND status = 'approved'
  AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC
LIMIT 500
`

const listByStatusSQL = `
SELECT ` + reviewColumns + `
FROM reviews
WHERE status = ? AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const listDeletedSQL = `
SELECT ` + reviewColumns + `
FROM reviews
WHERE deleted_at IS NOT NULL
ORDER BY deleted_at DESC, id DESC
LIMIT ?
`

// -----------------------------------------------------------------------------
// SUGGESTIONS
// -----------------------------------------------------------------------------

const suggestionColumns = "id, county, town, proposed_estate, notes, contact_email, status, created_at"

const insertSuggestionSQL = `
INSERT INTO area_suggestions
  (id, county, town, proposed_estate, notes, contact_email, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const listSuggestionsSQL = `
SELECT ` + suggestionColumns + `
FROM area_suggestions
WHERE status = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const getSuggestionSQL = `SELECT ` + suggestionColumns + ` FROM area_suggestions WHERE id = ?`

const lockSuggestionSQL = `SELECT ` + suggestionColumns + ` FROM area_suggestions WHERE id = ? FOR UPDATE`

const updateSuggestionStatusSQL = `UPDATE area_suggestions SET status = ? WHERE id = ?`

// -----------------------------------------------------------------------------
// PLACES
// -----------------------------------------------------------------------------

const listPlacesSQL = `
SELECT id, county, town, estate, lat, lng, source, notes
FROM places
ORDER BY county, town, estate
`

const upsertPlacesPrefix = "INSERT INTO places\n  (id, county, town, estate, lat, lng, source, notes)\nVALUES "

// The unique (county, town, estate) key keeps the first id; coordinates only
// ever fill in, never blank out.
const upsertPlacesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  lat    = COALESCE(VALUES(lat), places.lat),\n" +
	"  lng    = COALESCE(VALUES(lng), places.lng),\n" +
	"  source = IF(VALUES(source) = '', places.source, VALUES(source)),\n" +
	"  notes  = IF(VALUES(notes) = '', places.notes, VALUES(notes))\n"

// -----------------------------------------------------------------------------
// SUBMISSION LOG
// -----------------------------------------------------------------------------

const insertSubmissionSQL = `INSERT INTO submission_log (ip_hash, inserted_at) VALUES (?, ?)`

const countSubmissionsSQL = `SELECT COUNT(*) FROM submission_log WHERE ip_hash = ? AND inserted_at >= ?`
