package catalog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"splice/internal/ledger"
	"splice/internal/logging"
	"splice/internal/services"
)

// ParseSequenceList splits a comma-separated list of sequence numbers.
// Tokens that are not positive integers are returned separately, in order.
func ParseSequenceList(input string) ([]int, []string) {
	var seqs []int
	var rejected []string
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 {
			rejected = append(rejected, token)
			continue
		}
		seqs = append(seqs, n)
	}
	return seqs, rejected
}

// Selection is the result of resolving sequence numbers against a ledger.
type Selection struct {
	Paths   []string
	Missing []int
}

// Resolve maps sequence numbers to paths in the order requested. Numbers with
// no ledger row are skipped and logged. A selection that resolves to nothing
// is a validation error.
func Resolve(l *ledger.Ledger, seqs []int, logger *slog.Logger) (Selection, error) {
	logger = logging.NewComponentLogger(logger, "selection")
	var sel Selection
	for _, seq := range seqs {
		asset, ok := l.Lookup(seq)
		if !ok {
			logging.WarnWithContext(logger, "sequence not in ledger", "asset_not_found",
				logging.Int(logging.FieldSequence, seq),
				logging.Error(services.Wrap(services.ErrAssetNotFound, "selection", "resolve", fmt.Sprintf("stt %d", seq), nil)),
				logging.String(logging.FieldErrorHint, "run sync for the catalog or check the number"),
				logging.String(logging.FieldImpact, "clip is left out of the output"),
			)
			sel.Missing = append(sel.Missing, seq)
			continue
		}
		sel.Paths = append(sel.Paths, asset.Path)
	}
	if len(sel.Paths) == 0 {
		return sel, services.Wrap(services.ErrValidation, "selection", "resolve", "no ledger entries matched the requested sequence numbers", nil)
	}
	return sel, nil
}
