package application

import "github.com/sebuszqo/FinanceSync/internal/ledger/domain"

// SourceResult is the outcome of reading one source. Err is set when the
// source was skipped.
type SourceResult struct {
	Label          string
	Institution    domain.Institution
	Accounts       []domain.Account
	Transactions   []domain.Transaction
	PendingDropped int
	Err            error
}

func (r SourceResult) Skipped() bool {
	return r.Err != nil
}

type RunReport struct {
	RunID          string
	Start          string
	End            string
	DryRun         bool
	Rows           map[string]int
	Affected       map[string]int64
	Synced         []string
	Skipped        []string
	SkipReasons    map[string]error
	PendingDropped int
}

func newRunReport(runID, start, end string, dryRun bool) *RunReport {
	return &RunReport{
		RunID:       runID,
		Start:       start,
		End:         end,
		DryRun:      dryRun,
		Rows:        make(map[string]int, len(domain.Tables)),
		Affected:    make(map[string]int64, len(domain.Tables)),
		SkipReasons: make(map[string]error),
	}
}

func (r *RunReport) add(result SourceResult) {
	if result.Skipped() {
		r.Skipped = append(r.Skipped, result.Label)
		r.SkipReasons[result.Label] = result.Err
		return
	}
	r.Synced = append(r.Synced, result.Label)
	r.PendingDropped += result.PendingDropped
}
