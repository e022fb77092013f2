package recurrence

import (
	"fmt"
	"sync"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Processor materializes due occurrences of recurring transactions into
// concrete ledger entries. It is the only writer of the NextRun watermark.
//
// Idempotency is enforced twice: an existence check before each insert, and
// the (recurring_transaction_id, occurred_at) unique index with ON CONFLICT
// DO NOTHING underneath it, so two concurrent passes over the same
// definition cannot produce duplicates. Passes over the same definition are
// additionally serialized with a per-definition mutex.
type Processor struct {
	db         *gorm.DB
	log        zerolog.Logger
	maxPerPass int

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// DefaultMaxPerPass bounds how many occurrences a single catch-up pass may
// materialize for one definition. A definition whose watermark drifted years
// into the past finishes over several passes instead of stalling one.
const DefaultMaxPerPass = 1000

func NewProcessor(db *gorm.DB, log zerolog.Logger, maxPerPass int) *Processor {
	if maxPerPass <= 0 {
		maxPerPass = DefaultMaxPerPass
	}
	return &Processor{
		db:         db,
		log:        log,
		maxPerPass: maxPerPass,
		locks:      map[uint]*sync.Mutex{},
	}
}

func (p *Processor) lockFor(id uint) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	mu, ok := p.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		p.locks[id] = mu
	}
	return mu
}

// ProcessDue brings rec's ledger entries up to date with wall-clock time.
// Safe to call repeatedly; a second call with no time elapsed creates
// nothing.
func (p *Processor) ProcessDue(rec *models.RecurringTransaction) error {
	return p.ProcessDueAt(rec, time.Now())
}

// ProcessDueAt is ProcessDue with an explicit current time.
func (p *Processor) ProcessDueAt(rec *models.RecurringTransaction, now time.Time) error {
	mu := p.lockFor(rec.ID)
	mu.Lock()
	defer mu.Unlock()

	if !ValidPeriodicity(rec.Periodicity) {
		return fmt.Errorf("%w: %q", ErrUnknownPeriodicity, rec.Periodicity)
	}
	if rec.NextRun.IsZero() {
		rec.NextRun = rec.StartDate
	}

	kind := rec.Kind()
	cursor := rec.NextRun
	created := 0

	for it := 0; !cursor.After(now); it++ {
		if it >= p.maxPerPass {
			p.log.Warn().
				Uint("recurring_id", rec.ID).
				Int("limit", p.maxPerPass).
				Time("cursor", cursor).
				Msg("catch-up pass hit iteration limit, resuming next pass")
			break
		}

		elapsed, err := ElapsedPeriods(rec.StartDate, cursor, rec.Periodicity)
		if err != nil {
			return err
		}
		installment := elapsed + 1

		if kind == models.SeriesFixedInstallments && installment > *rec.TotalInstallments {
			break
		}
		if kind == models.SeriesBoundedByDate && cursor.After(*rec.EndDate) {
			break
		}

		inserted, err := p.materialize(rec, cursor, installment)
		if err != nil {
			// Entries up to cursor are stored; park the watermark on the
			// failed occurrence so the next pass retries it instead of
			// skipping it forever.
			if saveErr := p.saveWatermark(rec, cursor); saveErr != nil {
				p.log.Error().Err(saveErr).Uint("recurring_id", rec.ID).
					Msg("persist watermark after failed occurrence")
			}
			return fmt.Errorf("materialize occurrence %s: %w", cursor.Format(time.RFC3339), err)
		}
		if inserted {
			created++
		}

		cursor, err = Advance(cursor, rec.Periodicity)
		if err != nil {
			return err
		}
	}

	if created > 0 {
		p.log.Info().
			Uint("recurring_id", rec.ID).
			Int("created", created).
			Time("next_run", cursor).
			Msg("materialized pending occurrences")
	}
	return p.saveWatermark(rec, cursor)
}

// ProcessAllDue runs a catch-up pass over every definition whose watermark
// has passed. Definitions are independent; a failure on one is logged and
// the scan continues. Returns how many definitions were processed cleanly.
func (p *Processor) ProcessAllDue(now time.Time) (int, error) {
	var due []models.RecurringTransaction
	if err := p.db.Where("next_run <= ?", now).Find(&due).Error; err != nil {
		return 0, fmt.Errorf("scan due recurring transactions: %w", err)
	}

	processed := 0
	for i := range due {
		if err := p.ProcessDueAt(&due[i], now); err != nil {
			p.log.Error().Err(err).Uint("recurring_id", due[i].ID).
				Msg("catch-up failed for recurring transaction")
			continue
		}
		processed++
	}
	return processed, nil
}

// MaterializeSeries eagerly generates the full run of a closed
// (fixed-installment) series: exactly N entries dated start, start+1 period,
// ..., with installment numbers 1..N. The watermark ends past the last
// installment so later catch-up passes have nothing to do.
func (p *Processor) MaterializeSeries(rec *models.RecurringTransaction) error {
	if rec.Kind() != models.SeriesFixedInstallments {
		return fmt.Errorf("materialize series: recurring transaction %d has no installment count", rec.ID)
	}

	mu := p.lockFor(rec.ID)
	mu.Lock()
	defer mu.Unlock()

	total := *rec.TotalInstallments
	due := rec.StartDate
	for i := 1; i <= total; i++ {
		if _, err := p.materialize(rec, due, i); err != nil {
			if saveErr := p.saveWatermark(rec, due); saveErr != nil {
				p.log.Error().Err(saveErr).Uint("recurring_id", rec.ID).
					Msg("persist watermark after failed installment")
			}
			return fmt.Errorf("materialize installment %d/%d: %w", i, total, err)
		}
		next, err := Advance(due, rec.Periodicity)
		if err != nil {
			return err
		}
		due = next
	}
	return p.saveWatermark(rec, due)
}

// materialize creates the ledger entry for one occurrence unless it already
// exists. Reports whether a row was actually inserted; a duplicate detected
// by the unique index is a benign no-op, not an error.
func (p *Processor) materialize(rec *models.RecurringTransaction, due time.Time, installment int) (bool, error) {
	var count int64
	if err := p.db.Model(&models.Transaction{}).
		Where("recurring_transaction_id = ? AND occurred_at = ?", rec.ID, due).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	entry := models.Transaction{
		UserID:                 rec.UserID,
		AccountID:              rec.AccountID,
		CategoryID:             rec.CategoryID,
		OccurredAt:             due,
		Type:                   rec.Type,
		Description:            p.description(rec, installment),
		Amount:                 rec.Amount,
		InstallmentNumber:      &installment,
		RecurringTransactionID: &rec.ID,
	}

	res := p.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// description decorates the base description with the installment position
// for closed series only; open-ended and date-bounded series keep it as is.
func (p *Processor) description(rec *models.RecurringTransaction, installment int) string {
	if rec.Kind() != models.SeriesFixedInstallments {
		return rec.Description
	}
	return fmt.Sprintf("%s - Installment %d/%d", rec.Description, installment, *rec.TotalInstallments)
}

// saveWatermark persists the advanced NextRun. The watermark only moves
// forward; a stale cursor is dropped rather than written.
func (p *Processor) saveWatermark(rec *models.RecurringTransaction, next time.Time) error {
	if next.Before(rec.NextRun) {
		return nil
	}
	rec.NextRun = next
	if err := p.db.Model(&models.RecurringTransaction{}).
		Where("id = ?", rec.ID).
		Update("next_run", next).Error; err != nil {
		return fmt.Errorf("persist next_run: %w", err)
	}
	return nil
}
