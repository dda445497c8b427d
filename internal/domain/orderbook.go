package domain

import (
	"math"
	"strconv"
)

const (
	// MinPrice y MaxPrice acotan cualquier precio que mandamos al CLOB.
	MinPrice = 0.001
	MaxPrice = 0.998
)

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra. 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el precio al que podemos comprar ya. 0 si no hay asks.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (ob OrderBook) Midpoint() float64 {
	bid, ask := ob.BestBid(), ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// EntryPrice es el precio de referencia para comprar el token: best ask si
// existe, si no el midpoint. 0 si el book está vacío.
func (ob OrderBook) EntryPrice() float64 {
	if ask := ob.BestAsk(); ask > 0 {
		return ask
	}
	return ob.Midpoint()
}

// ClampPrice limita p a [MinPrice, MaxPrice].
func ClampPrice(p float64) float64 {
	return math.Min(math.Max(p, MinPrice), MaxPrice)
}

// RoundToTick redondea p hacia abajo al tick dado (0.01, 0.001).
func RoundToTick(p, tick float64) float64 {
	if tick <= 0 {
		return p
	}
	return math.Floor(p/tick+1e-9) * tick
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping de la API.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
