package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store abre transações de estado com escopo de chamada. Cada chamada de
// handler roda inteira dentro de uma Tx: nada persiste sem Commit, e qualquer
// erro descarta todas as escritas (tudo-ou-nada).
type Store interface {
	Begin(ctx context.Context, contract string) (Tx, error)
}

// Tx é a visão chave→valor de um contrato durante uma chamada.
type Tx interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LoadJSON lê e desserializa um registro; found=false quando a chave não existe.
func LoadJSON(ctx context.Context, tx Tx, key string, out any) (bool, error) {
	raw, found, err := tx.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON serializa e grava um registro.
func SaveJSON(ctx context.Context, tx Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.Set(ctx, key, raw)
}
