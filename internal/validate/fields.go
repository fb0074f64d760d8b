package validate

import (
	"strings"

	"github.com/ppiankov/verifier/internal/model"
)

// CheckFields reports MissingField when title or content is blank.
// The source URL is judged by the liveness checker, not here.
func CheckFields(rec model.Record) (model.Reason, string) {
	var missing []string
	if strings.TrimSpace(rec.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(rec.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return model.ReasonMissingField, strings.Join(missing, ",")
	}
	return model.ReasonValid, ""
}
