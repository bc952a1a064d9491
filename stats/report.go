package stats

import (
	"fmt"

	"fintrack/models"
	"fintrack/reportstore"

	"gorm.io/gorm"
)

// ReportGenerator computes and persists monthly report snapshots. Reads go
// through the aggregation engine against the primary store; the snapshot is
// written to the side-store in one atomic insert-or-replace, so a storage
// failure leaves no partial row behind.
type ReportGenerator struct {
	db     *gorm.DB
	engine *Engine
	store  *reportstore.Store
}

// NewReportGenerator wires the generator onto the primary store handle and
// the snapshot side-store.
func NewReportGenerator(db *gorm.DB, store *reportstore.Store) *ReportGenerator {
	return &ReportGenerator{
		db:     db,
		engine: NewEngine(db),
		store:  store,
	}
}

// Generate recomputes the report for (userID, month) from live data and
// overwrites any previous snapshot for that key. Calling it again without
// intervening expense or budget changes produces an identical snapshot.
func (g *ReportGenerator) Generate(userID uint, month string) (*reportstore.Snapshot, error) {
	start, end, err := MonthWindow(month)
	if err != nil {
		return nil, err
	}

	totalSpent, err := g.engine.Total(userID, start, end, "")
	if err != nil {
		return nil, fmt.Errorf("compute total spend: %w", err)
	}

	var topCategory *string
	topName, topAmount, ok, err := g.engine.TopCategory(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("compute top category: %w", err)
	}
	if ok {
		topCategory = &topName
	} else {
		topAmount = 0
	}

	var budgets []models.Budget
	if err := g.db.Where("user_id = ? AND month = ?", userID, month).
		Order("category ASC").
		Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	overBudget := make([]reportstore.OverBudgetCategory, 0)
	for _, b := range budgets {
		spent, err := g.engine.Total(userID, start, end, b.Category)
		if err != nil {
			return nil, fmt.Errorf("compute spend for %s: %w", b.Category, err)
		}
		// only strictly exceeded budgets are recorded
		if spent > b.Amount {
			overBudget = append(overBudget, reportstore.OverBudgetCategory{
				Category: b.Category,
				Budget:   b.Amount,
				Spent:    spent,
				Overage:  spent - b.Amount,
			})
		}
	}

	snap := reportstore.Snapshot{
		UserID:            userID,
		Month:             month,
		TotalSpent:        totalSpent,
		TopCategory:       topCategory,
		TopCategoryAmount: topAmount,
		OverBudgetEntries: overBudget,
	}

	if err := g.store.Save(snap); err != nil {
		return nil, err
	}

	saved, err := g.store.Get(userID, month)
	if err != nil {
		return nil, err
	}
	return saved, nil
}
