package reconcile

import "errors"

// ErrMissingPrice names the error for a row that carries no price at
// all. Reconcile never returns it and never skips a row for it: every
// domain.Product holds a Price value, so Stats.RowsSkippedNoPrice
// stays zero.
var ErrMissingPrice = errors.New("reconcile: missing required price")
