package transaction

import (
	"github.com/simp-lee/posadmin/internal/crud"
	"github.com/simp-lee/posadmin/internal/domain"
)

var typeLabels = map[string]string{
	domain.TransactionDirect:    "Direct Transaction",
	domain.TransactionRecurring: "Recurring Transaction",
	domain.TransactionEntity:    "Entity Transaction",
	domain.TransactionScheduled: "Scheduled Transaction",
}

var typeOrder = []string{
	domain.TransactionDirect,
	domain.TransactionRecurring,
	domain.TransactionEntity,
	domain.TransactionScheduled,
}

var occurrenceLabels = map[string]string{
	domain.OccurrenceMonthStarts:      "Start of Month",
	domain.OccurrenceMonthMids:        "Mid of Month",
	domain.OccurrenceMonthEnds:        "End of Month",
	domain.OccurrenceBeforeMonthEnds:  "X days Before Month Ends",
	domain.OccurrenceAfterMonthStarts: "X days After Month Starts",
}

var occurrenceOrder = []string{
	domain.OccurrenceMonthStarts,
	domain.OccurrenceMonthMids,
	domain.OccurrenceMonthEnds,
	domain.OccurrenceBeforeMonthEnds,
	domain.OccurrenceAfterMonthStarts,
}

func options(order []string, labels map[string]string) []crud.Option {
	out := make([]crud.Option, len(order))
	for i, v := range order {
		out[i] = crud.Option{Label: labels[v], Value: v}
	}
	return out
}
