package entry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/namescreen/namescreen/internal/db"
	"github.com/namescreen/namescreen/internal/domain"
)

// aliasSeparator joins aliases into one hash field. Unit separator: cannot
// appear in sane name data and survives the round trip.
const aliasSeparator = "\x1f"

// buildHashFields converts a domain Entry into a flat map for HSET.
func buildHashFields(e *domain.Entry) map[string]string {
	return map[string]string{
		db.FieldName:      e.Name(),
		db.FieldAliases:   strings.Join(e.Aliases(), aliasSeparator),
		db.FieldTokens:    strings.Join(e.Tokens(), " "),
		db.FieldVector:    string(db.VectorToBytes(e.Vector())),
		db.FieldSource:    e.Source(),
		db.FieldUpdatedAt: strconv.FormatInt(e.UpdatedAt(), 10),
	}
}

// parseHashFields converts a flat hash map back into a domain Entry.
func parseHashFields(id string, m map[string]string) (domain.Entry, error) {
	vector, err := db.BytesToVector([]byte(m[db.FieldVector]))
	if err != nil {
		return domain.Entry{}, fmt.Errorf("entry %s: parse vector: %w", id, err)
	}

	var aliases []string
	if raw := m[db.FieldAliases]; raw != "" {
		aliases = strings.Split(raw, aliasSeparator)
	}

	var tokens []string
	if raw := m[db.FieldTokens]; raw != "" {
		tokens = strings.Fields(raw)
	}

	updatedAt, _ := strconv.ParseInt(m[db.FieldUpdatedAt], 10, 64)

	return domain.ReconstructEntry(
		id, m[db.FieldName], aliases, tokens, vector, m[db.FieldSource], updatedAt,
	), nil
}
