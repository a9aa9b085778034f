package ledger

import (
	"context"
	"database/sql"
)

// Postgres implementa o ledger sobre uma tabela única contract_state
// (contract TEXT, key TEXT, value JSONB, PRIMARY KEY (contract, key)).
// Cada Tx é um sql.Tx; o FOR UPDATE no Get garante escritor único por chave
// durante a chamada.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Begin(ctx context.Context, contract string) (Tx, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx, contract: contract}, nil
}

type pgTx struct {
	tx       *sql.Tx
	contract string
}

func (t *pgTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx,
		`SELECT value FROM contract_state WHERE contract=$1 AND key=$2 FOR UPDATE`,
		t.contract, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (t *pgTx) Set(ctx context.Context, key string, value []byte) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO contract_state(contract, key, value) VALUES($1,$2,$3)
		ON CONFLICT (contract, key) DO UPDATE SET value=EXCLUDED.value`,
		t.contract, key, value)
	return err
}

func (t *pgTx) Remove(ctx context.Context, key string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM contract_state WHERE contract=$1 AND key=$2`, t.contract, key)
	return err
}

func (t *pgTx) Commit(_ context.Context) error   { return t.tx.Commit() }
func (t *pgTx) Rollback(_ context.Context) error { return t.tx.Rollback() }
