package xlcalc

// RecalcListener is notified while a recalculation pass runs. Listeners are
// called with the workbook locked and must not call back into it.
type RecalcListener interface {
	// BeforeRecalc is called with every cell about to be recomputed, in
	// evaluation order.
	BeforeRecalc(dirty []CellKey)

	// AfterEvaluate is called for each formula cell once its new value and
	// state are committed, whether or not the value changed.
	AfterEvaluate(update CellUpdate)
}
