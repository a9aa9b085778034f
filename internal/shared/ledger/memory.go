package ledger

import (
	"context"
	"errors"
	"sync"
)

var errTxDone = errors.New("ledger: transaction already finished")

// Memory é o store em memória usado nos testes dos engines e no modo local.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string][]byte // contract -> key -> value
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Begin(_ context.Context, contract string) (Tx, error) {
	return &memTx{
		store:    m,
		contract: contract,
		writes:   make(map[string][]byte),
		removes:  make(map[string]bool),
	}, nil
}

// memTx acumula escritas num overlay e só aplica no Commit.
type memTx struct {
	store    *Memory
	contract string
	writes   map[string][]byte
	removes  map[string]bool
	done     bool
}

func (t *memTx) Get(_ context.Context, key string) ([]byte, bool, error) {
	if t.done {
		return nil, false, errTxDone
	}
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	if t.removes[key] {
		return nil, false, nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	v, ok := t.store.data[t.contract][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (t *memTx) Set(_ context.Context, key string, value []byte) error {
	if t.done {
		return errTxDone
	}
	delete(t.removes, key)
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memTx) Remove(_ context.Context, key string) error {
	if t.done {
		return errTxDone
	}
	delete(t.writes, key)
	t.removes[key] = true
	return nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	bucket, ok := t.store.data[t.contract]
	if !ok {
		bucket = make(map[string][]byte)
		t.store.data[t.contract] = bucket
	}
	for k := range t.removes {
		delete(bucket, k)
	}
	for k, v := range t.writes {
		bucket[k] = v
	}
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return nil // rollback depois de commit/rollback é no-op, igual ao sql.Tx em defer
	}
	t.done = true
	return nil
}
