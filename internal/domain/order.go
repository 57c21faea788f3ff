package domain

import "github.com/shopspring/decimal"

// OrderLine — одна товарная позиция заказа. Позиции принадлежат заказу
// целиком и отдельного жизненного цикла не имеют.
type OrderLine struct {
	// ProductID — внешний идентификатор товара.
	ProductID string `json:"productID"`
	// Quantity — количество единиц товара (неотрицательное).
	Quantity int `json:"quantity"`
}

// Order — заказ, загруженный из внешней e-commerce платформы.
type Order struct {
	// ID — стабильный внешний идентификатор заказа; уникальность
	// обеспечивается хранилищем.
	ID string
	// Worth — суммарная стоимость заказа в его базовой валюте: товары,
	// доставка, форма оплаты и страховка.
	Worth decimal.Decimal
	// Lines — товарные позиции заказа; порядок не значим.
	Lines []OrderLine
}

// WorthFilter задаёт диапазон стоимости для выборки заказов.
// Max == nil означает отсутствие верхней границы.
type WorthFilter struct {
	Min decimal.Decimal
	Max *decimal.Decimal
}

// Matches сообщает, попадает ли стоимость заказа в диапазон (границы включительно).
func (f WorthFilter) Matches(worth decimal.Decimal) bool {
	if worth.LessThan(f.Min) {
		return false
	}
	if f.Max != nil && worth.GreaterThan(*f.Max) {
		return false
	}
	return true
}
