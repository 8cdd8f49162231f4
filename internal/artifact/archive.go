package artifact

import "github.com/xiaot623/gogo/agentstatus/internal/domain"

// ArchiveToolResults copies the results of every tool_finished record in
// update into st and returns how many were stored. Records with empty
// results are skipped.
func ArchiveToolResults(st Storage, update *domain.StatusUpdate) int {
	if update == nil {
		return 0
	}
	stored := 0
	for _, rec := range update.Items {
		finished, ok := rec.(domain.ToolFinished)
		if !ok || finished.ToolResults == "" {
			continue
		}
		st.StoreNext(finished.ToolID, finished.ToolResults)
		stored++
	}
	return stored
}
