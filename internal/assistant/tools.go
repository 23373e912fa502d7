package assistant

import "encoding/json"

// ToolSchema describe una tool en el formato function-calling del proveedor.
type ToolSchema struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

func schema(name, description, parameters string) ToolSchema {
	var s ToolSchema
	s.Type = "function"
	s.Function.Name = name
	s.Function.Description = description
	s.Function.Parameters = json.RawMessage(parameters)
	return s
}

// WalletTools es el conjunto cerrado de tools del asistente. No hay registro
// abierto: cada una tiene un executor fijo revisado.
var WalletTools = []ToolSchema{
	schema("get_balance",
		"Get the current SOL and SPL token balances for the user's connected wallet",
		`{"type":"object","properties":{},"required":[]}`),
	schema("create_transfer",
		"Create a pending SOL transfer transaction that requires user approval",
		`{"type":"object","properties":{"recipient":{"type":"string","description":"The recipient's wallet address"},"amount":{"type":"number","description":"Amount of SOL to transfer"},"memo":{"type":"string","description":"Optional memo for the transaction"}},"required":["recipient","amount"]}`),
	schema("get_transaction_history",
		"Get recent transaction history for the user's wallet",
		`{"type":"object","properties":{"limit":{"type":"number","description":"Number of transactions to return (default: 10)"}},"required":[]}`),
	schema("estimate_fee",
		"Estimate network fee for SOL transfer",
		`{"type":"object","properties":{},"required":[]}`),
}
