package domain

import "errors"

var (
	// ErrInsufficientBalance se devuelve cuando el saldo inicial no permite operar.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrMarketNotTradeable indica un mercado cerrado o que no acepta órdenes.
	ErrMarketNotTradeable = errors.New("market not tradeable")
	// ErrInvalidTransition es un salto no permitido en la máquina de estados de una orden.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInvariantBroken indica que la cartera dejó de ser un sistema cerrado.
	ErrInvariantBroken = errors.New("portfolio invariant broken")
	// ErrNotFound se devuelve cuando la API no conoce el recurso pedido.
	ErrNotFound = errors.New("not found")
)
