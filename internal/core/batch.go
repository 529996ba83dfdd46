package core

// firstDataRow is the line number users see for rows[0]: line 1 is the header.
const firstDataRow = 2

// ValidateBatch validates every parsed row and reports all failures at once.
//
// The batch is all-or-nothing: Valid is populated only when no row failed.
// ValidCount always says how many rows would have passed.
func ValidateBatch(rows []CSVRow) BatchResult {
	var res BatchResult
	valid := make([]BuyerFields, 0, len(rows))

	for i, row := range rows {
		fields, errs := validateCSVRow(row)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, RowError{
				Row:     i + firstDataRow,
				Message: errs.Error(),
				Fields:  errs,
			})
			continue
		}
		valid = append(valid, fields)
	}

	res.ValidCount = len(valid)
	if res.OK() {
		res.Valid = valid
	}
	return res
}
