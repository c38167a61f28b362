package orders

// Patch collects column updates for a single row. Only present fields are
// ever added, so an empty patch means "nothing to write".
type Patch map[string]any

// PutString adds a text column when the field is present.
func (p Patch) PutString(column string, f Field) {
	if f.Present() {
		p[column] = f.String()
	}
}

// PutDecimal adds a numeric column when the field is present.
func (p Patch) PutDecimal(column string, f Field) error {
	if !f.Present() {
		return nil
	}
	d, err := f.Decimal()
	if err != nil {
		return err
	}
	p[column] = d
	return nil
}

// PutInt64 adds an identifier column when the field is present.
func (p Patch) PutInt64(column string, f Field) error {
	if !f.Present() {
		return nil
	}
	n, err := f.Int64()
	if err != nil {
		return err
	}
	p[column] = n
	return nil
}

// Empty reports whether the patch carries no updates.
func (p Patch) Empty() bool {
	return len(p) == 0
}
