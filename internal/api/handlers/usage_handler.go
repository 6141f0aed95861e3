package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// UsageHandler reports metered API spend per month
type UsageHandler struct {
	ledger repositories.UsageLedgerRepository
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(ledger repositories.UsageLedgerRepository) *UsageHandler {
	return &UsageHandler{ledger: ledger}
}

// GetUsage handles GET /api/usage?month=YYYY-MM, defaulting to the current
// month
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = entities.MonthKey(time.Now())
	} else if !monthKeyPattern.MatchString(month) {
		respondWithError(w, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}

	rows, err := h.ledger.ListMonth(r.Context(), month)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	total, err := h.ledger.MonthlyCost(r.Context(), month)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"month":          month,
		"total_cost_usd": total,
		"operations":     rows,
	})
}
