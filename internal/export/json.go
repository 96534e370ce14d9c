// Package export serializes transactions to the JSON exchange format and CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanshika/momoledger/internal/domain"
)

const jsonIndent = "    "

// WriteJSON encodes txs as an indented JSON array. A nil slice is written as [].
func WriteJSON(w io.Writer, txs []domain.Transaction) error {
	if txs == nil {
		txs = []domain.Transaction{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", jsonIndent)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(txs); err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	return nil
}

// WriteFile writes txs to path, creating parent directories as needed.
func WriteFile(path string, txs []domain.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := WriteJSON(file, txs); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// ReadJSON decodes a JSON array of transactions. Missing participant lists
// decode as empty.
func ReadJSON(r io.Reader) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	for i := range txs {
		if txs[i].Participants == nil {
			txs[i].Participants = []domain.Participant{}
		}
	}
	return txs, nil
}

// ReadFile decodes the transactions stored at path.
func ReadFile(path string) ([]domain.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	txs, err := ReadJSON(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return txs, nil
}
