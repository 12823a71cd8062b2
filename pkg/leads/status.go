package leads

import (
	"strings"

	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// statusAliases maps free-form status input to the closed enum. Resolution is
// case-insensitive and tolerant of separator variants; anything outside this
// table is an explicit no-match, never stored raw.
var statusAliases = map[string]models.LeadStatus{
	"new":   models.StatusNew,
	"open":  models.StatusNew,
	"fresh": models.StatusNew,

	"interested": models.StatusInterested,
	"hot":        models.StatusInterested,
	"warm":       models.StatusInterested,
	"follow up":  models.StatusInterested,

	"not interested": models.StatusNotInterested,
	"uninterested":   models.StatusNotInterested,
	"cold":           models.StatusNotInterested,
	"rejected":       models.StatusNotInterested,
	"dead":           models.StatusNotInterested,

	"deal":      models.StatusDeal,
	"deal done": models.StatusDeal,
	"closed":    models.StatusDeal,
	"won":       models.StatusDeal,
	"converted": models.StatusDeal,
}

// NormalizeStatus resolves raw input against the alias table. The second
// return is false when nothing matches.
func NormalizeStatus(raw string) (models.LeadStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")

	status, ok := statusAliases[key]
	return status, ok
}
