// Package entropy deriva o resultado pseudoaleatório de uma aposta a partir do
// contexto de bloco. A derivação é determinística: todo validador executando a
// mesma transação chega no mesmo resultado. A imprevisibilidade vem do fato de
// a resolução ser forçada a esperar o bloco seguinte ao da aposta.
package entropy

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"

	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// Outcomes é o tamanho do espaço de resultados da mesa (slots equiprováveis).
const Outcomes = 59

// DeriveOutcome produz um slot em [0, Outcomes) a partir da identidade do
// apostador e do bloco corrente. Entropia: bettor || chain_id || altura BE ||
// time BE || time_nanos BE, passada por sha256 e re-salgada com o timestamp
// antes de semear o gerador.
func DeriveOutcome(bettor string, env wire.BlockEnv) uint8 {
	var be [8]byte

	buf := make([]byte, 0, len(bettor)+len(env.ChainID)+24)
	buf = append(buf, bettor...)
	buf = append(buf, env.ChainID...)
	binary.BigEndian.PutUint64(be[:], env.Height)
	buf = append(buf, be[:]...)
	binary.BigEndian.PutUint64(be[:], uint64(env.Time))
	buf = append(buf, be[:]...)
	binary.BigEndian.PutUint64(be[:], env.TimeNanos)
	buf = append(buf, be[:]...)

	digest := sha256.Sum256(buf)

	// re-salga o material do seed com o timestamp depois do hash
	binary.BigEndian.PutUint64(be[:], uint64(env.Time))
	salted := append(digest[:], be[:]...)

	h := sha256.New()
	h.Write([]byte(bettor))
	h.Write(salted)
	seed := binary.BigEndian.Uint64(h.Sum(nil)[:8])

	rng := rand.New(rand.NewSource(int64(seed)))
	return uint8(rng.Intn(Outcomes))
}
