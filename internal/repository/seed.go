package repository

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/vnoc/incident-tracker/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadSeedFile reads a JSON array of incident reports.
func LoadSeedFile(path string) ([]domain.Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// DecodeSeed decodes tickets and rejects entries without a ticket number or
// with a duplicate one.
func DecodeSeed(r io.Reader) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := json.NewDecoder(r).Decode(&tickets); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	seen := make(map[string]struct{}, len(tickets))
	for i, t := range tickets {
		if t.TTNumber == "" {
			return nil, fmt.Errorf("seed entry %d has no tt_number", i)
		}
		if _, dup := seen[t.TTNumber]; dup {
			return nil, fmt.Errorf("seed entry %d duplicates %s", i, t.TTNumber)
		}
		seen[t.TTNumber] = struct{}{}
	}
	return tickets, nil
}
