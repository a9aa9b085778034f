package house

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	housedto "github.com/radieske/casino-settlement-poc/internal/house/dto"
)

// Client fala com o house-service. A mesa reporta o resultado ANTES de
// commitar a própria transação: se a pool recusar, a resolução inteira aborta.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// ReportPlayResult devolve as transferências que a pool emitiu (prêmio, se houve).
func (c *Client) ReportPlayResult(ctx context.Context, sender string, won bool, betAmount, prizeAmount, winner string) ([]housedto.TransferDTO, error) {
	body, _ := json.Marshal(housedto.PlayResultRequest{
		Sender:      sender,
		Won:         won,
		BetAmount:   betAmount,
		PrizeAmount: prizeAmount,
		Winner:      winner,
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/pool/play-result", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("house play-result http %d", res.StatusCode)
	}
	var out housedto.PlayResultResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Transfers, nil
}
