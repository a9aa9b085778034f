package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
)

// PostgresRepo grava a trilha de auditoria da liquidação.
//
// Esquema esperado:
//
//	CREATE TABLE play_results (
//	    id            TEXT PRIMARY KEY,
//	    game_contract TEXT NOT NULL,
//	    winner        TEXT NOT NULL,
//	    won           BOOLEAN NOT NULL,
//	    bet_amount    NUMERIC(78,0) NOT NULL,
//	    prize_amount  NUMERIC(78,0) NOT NULL,
//	    ts            TIMESTAMPTZ NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
//	CREATE TABLE native_transfers (
//	    id         TEXT PRIMARY KEY,
//	    recipient  TEXT NOT NULL,
//	    denom      TEXT NOT NULL,
//	    amount     NUMERIC(78,0) NOT NULL,
//	    reason     TEXT NOT NULL,
//	    ts         TIMESTAMPTZ NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresRepo struct {
	DB *sql.DB
}

// InsertPlayResult é idempotente por ID: reentrega do Kafka não duplica linha.
func (r *PostgresRepo) InsertPlayResult(ctx context.Context, e *events.PlayResult) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO play_results (id, game_contract, winner, won, bet_amount, prize_amount, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.GameContract, e.Winner, e.Won, e.BetAmount, e.PrizeAmount, e.Ts)
	return err
}

func (r *PostgresRepo) InsertNativeTransfer(ctx context.Context, e *events.NativeTransfer) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO native_transfers (id, recipient, denom, amount, reason, ts)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Recipient, e.Denom, e.Amount, e.Reason, e.Ts)
	return err
}
