package orders

// BasketInput is one sub-allocation entry under a line item. SalesValue is
// the resold portion and only appears on sales baskets.
type BasketInput struct {
	BasketID   Field `json:"basketId"`
	Kg         Field `json:"kg"`
	SalesValue Field `json:"salesValue"`
}

// BasketOpKind enumerates what a basket entry asks for.
type BasketOpKind int

const (
	// BasketNoop carries neither an id nor a value; it is recorded as a
	// skipped step, never an error.
	BasketNoop BasketOpKind = iota
	// BasketCreate inserts a new basket under the line item.
	BasketCreate
	// BasketUpdate rewrites an existing basket.
	BasketUpdate
	// BasketDelete removes the basket. An id with no values is a deletion
	// request; callers depend on that convention.
	BasketDelete
)

// BasketOp is the classified form of a basket entry.
type BasketOp struct {
	Kind   BasketOpKind
	ID     int64
	Fields Patch
}

// ClassifyBasket derives the operation a basket entry requests from the
// presence of its identifier and values. The dispatch is pure so it can be
// tested without a transaction.
func ClassifyBasket(in BasketInput) (BasketOp, error) {
	fields := Patch{}
	if err := fields.PutDecimal("kg", in.Kg); err != nil {
		return BasketOp{}, err
	}
	if err := fields.PutDecimal("kg_sales", in.SalesValue); err != nil {
		return BasketOp{}, err
	}

	hasID := in.BasketID.Present()
	hasValues := !fields.Empty()

	switch {
	case hasID && hasValues:
		id, err := in.BasketID.Int64()
		if err != nil {
			return BasketOp{}, err
		}
		return BasketOp{Kind: BasketUpdate, ID: id, Fields: fields}, nil
	case !hasID && hasValues:
		return BasketOp{Kind: BasketCreate, Fields: fields}, nil
	case hasID:
		id, err := in.BasketID.Int64()
		if err != nil {
			return BasketOp{}, err
		}
		return BasketOp{Kind: BasketDelete, ID: id}, nil
	default:
		return BasketOp{Kind: BasketNoop}, nil
	}
}
