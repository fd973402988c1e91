package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/FinanceSync/internal/ledger/domain"
	ledgerErrors "github.com/sebuszqo/FinanceSync/internal/ledger/errors"
	"github.com/sebuszqo/FinanceSync/internal/ledger/normalize"
	"github.com/sebuszqo/FinanceSync/internal/logger"
	"github.com/sebuszqo/FinanceSync/internal/plaid"
)

const DateLayout = "2006-01-02"

// AggregatorClient is the upstream data source. *plaid.Client implements it.
type AggregatorClient interface {
	ListCategories(ctx context.Context) ([]plaid.Category, error)
	GetAccounts(ctx context.Context, accessToken string) (plaid.Item, []plaid.Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]plaid.Transaction, error)
	RefreshTransactions(ctx context.Context, accessToken string) error
}

// Writer reconciles a batch of rows into one table.
type Writer interface {
	Write(ctx context.Context, table string, rows []domain.Row) (int64, error)
}

// Source is one linked institution, identified to the operator by Label.
type Source struct {
	Label       string
	AccessToken string
}

// HistoryWindow is how far back transactions are requested, relative to today.
type HistoryWindow struct {
	Years  int
	Months int
	Days   int
}

func Months(n int) HistoryWindow {
	return HistoryWindow{Months: n}
}

// Range returns [today - window, today] in now's location.
func (w HistoryWindow) Range(now time.Time) (start, end time.Time) {
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start = end.AddDate(-w.Years, -w.Months, -w.Days)
	return start, end
}

type Service interface {
	Sync(ctx context.Context, sources []Source, window HistoryWindow) (*RunReport, error)
}

type SyncOptions struct {
	// RefreshTransactions asks the aggregator to refresh every source before
	// reading. Failures are logged and ignored.
	RefreshTransactions bool
	// DryRun fetches and normalizes but writes nothing.
	DryRun bool
}

type syncService struct {
	client AggregatorClient
	writer Writer
	opts   SyncOptions
	now    func() time.Time
}

func NewSyncService(client AggregatorClient, writer Writer, opts SyncOptions) Service {
	return &syncService{client: client, writer: writer, opts: opts, now: time.Now}
}

func (s *syncService) Sync(ctx context.Context, sources []Source, window HistoryWindow) (*RunReport, error) {
	start, end := window.Range(s.now())
	report := newRunReport(uuid.NewString(), start.Format(DateLayout), end.Format(DateLayout), s.opts.DryRun)

	log := logger.FromContext(ctx).With().Str("run_id", report.RunID).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().
		Int("sources", len(sources)).
		Str("start", report.Start).
		Str("end", report.End).
		Bool("dry_run", s.opts.DryRun).
		Msg("Starting sync")

	categories, err := s.client.ListCategories(ctx)
	if err != nil {
		return report, ledgerErrors.NewSourceFetchError("*", "categories", err)
	}
	categoryRows := normalize.Categories(categories)
	log.Info().Int("categories", len(categoryRows)).Msg("Fetched categories")

	if s.opts.RefreshTransactions {
		s.refresh(ctx, sources)
	}

	var institutions []domain.Institution
	var accounts []domain.Account
	var transactions []domain.Transaction
	for _, src := range sources {
		result, err := s.syncSource(ctx, src, start, end)
		if err != nil {
			return report, err
		}
		report.add(result)
		if result.Skipped() {
			continue
		}
		institutions = append(institutions, result.Institution)
		accounts = append(accounts, result.Accounts...)
		transactions = append(transactions, result.Transactions...)
	}

	batches := map[string][]domain.Row{
		domain.TableCategories:   dedupe(domain.AsRows(categoryRows)),
		domain.TableInstitutions: dedupe(domain.AsRows(institutions)),
		domain.TableAccounts:     dedupe(domain.AsRows(accounts)),
		domain.TableTransactions: dedupe(domain.AsRows(transactions)),
	}
	for _, table := range domain.Tables {
		rows := batches[table]
		report.Rows[table] = len(rows)
		if s.opts.DryRun {
			continue
		}
		affected, err := s.writer.Write(ctx, table, rows)
		if err != nil {
			return report, err
		}
		report.Affected[table] = affected
	}

	log.Info().
		Interface("rows", report.Rows).
		Interface("rows_affected", report.Affected).
		Strs("skipped", report.Skipped).
		Int("pending_dropped", report.PendingDropped).
		Msg("Sync finished")
	return report, nil
}

// syncSource returns a skipped result when accounts cannot be read. A
// transaction fetch failure is returned as an error and ends the run.
func (s *syncService) syncSource(ctx context.Context, src Source, start, end time.Time) (SourceResult, error) {
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{"source": src.Label})
	result := SourceResult{Label: src.Label}

	item, accounts, err := s.client.GetAccounts(ctx, src.AccessToken)
	if err != nil {
		result.Err = ledgerErrors.NewSourceFetchError(src.Label, "accounts", err)
		log.Error().Err(err).Msg("Skipping source, could not fetch accounts")
		return result, nil
	}
	if item.InstitutionID == "" {
		result.Err = ledgerErrors.NewSourceFetchError(src.Label, "accounts", errors.New("response carries no institution id"))
		log.Error().Err(result.Err).Msg("Skipping source, could not fetch accounts")
		return result, nil
	}
	result.Institution = normalize.Institution(src.Label, item)
	result.Accounts = normalize.Accounts(item.InstitutionID, accounts)

	raw, err := s.client.GetTransactions(ctx, src.AccessToken, start, end)
	if err != nil {
		return result, ledgerErrors.NewSourceFetchError(src.Label, "transactions", err)
	}
	result.Transactions, result.PendingDropped = normalize.Transactions(raw)

	log.Info().
		Str("institution_id", item.InstitutionID).
		Int("accounts", len(result.Accounts)).
		Int("transactions", len(result.Transactions)).
		Int("pending_dropped", result.PendingDropped).
		Msg("Fetched source")
	return result, nil
}

func (s *syncService) refresh(ctx context.Context, sources []Source) {
	log := logger.FromContext(ctx)
	for _, src := range sources {
		if err := s.client.RefreshTransactions(ctx, src.AccessToken); err != nil {
			log.Warn().Err(err).Str("source", src.Label).Msg("Transaction refresh failed, continuing with cached data")
		}
	}
}

// dedupe keeps one row per identifier. The last occurrence wins but keeps the
// position of the first, so one statement never touches a key twice.
func dedupe(rows []domain.Row) []domain.Row {
	index := make(map[any]int, len(rows))
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		key := row.Values()[0]
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}
