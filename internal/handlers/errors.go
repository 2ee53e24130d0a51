package handlers

import "fmt"

type insufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e insufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

type productNotFoundError struct {
	ProductID string
}

func (e productNotFoundError) Error() string {
	return "product not found: " + e.ProductID
}

type illegalTransitionError struct {
	From string
	To   string
}

func (e illegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

type duplicateSerialError struct {
	Serial string
}

func (e duplicateSerialError) Error() string {
	return "serial number already exists: " + e.Serial
}

type serialCountError struct {
	ProductID string
	Expected  int
	Got       int
}

func (e serialCountError) Error() string {
	return fmt.Sprintf("serial count mismatch for product %s: order line has qty %d, got %d serials",
		e.ProductID, e.Expected, e.Got)
}
