package ingest

// ValidationResult maps a row's Position to its error messages. A row with
// no entry is eligible for provisioning; the import "continue" action is
// blocked while TotalErrors > 0.
type ValidationResult struct {
	Errors      map[int][]string `json:"errors"`
	TotalErrors int              `json:"total_errors"`
}

// ValidateRow runs every schema validator against one row. Rules are
// evaluated independently, not short-circuited, so the user sees all
// problems at once.
func ValidateRow(row Row) []string {
	var msgs []string
	for _, spec := range Schema {
		if spec.Validate == nil {
			continue
		}
		if msg := spec.Validate(spec.Get(row)); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// Validate runs ValidateRow across the staged set.
func Validate(rows []Row) ValidationResult {
	result := ValidationResult{Errors: map[int][]string{}}
	for _, row := range rows {
		if msgs := ValidateRow(row); len(msgs) > 0 {
			result.Errors[row.Position] = msgs
			result.TotalErrors += len(msgs)
		}
	}
	return result
}
