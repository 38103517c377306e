package mockledger

import (
	"context"
	"fmt"
)

var seedNames = []string{
	"Alice Martins", "Bruno Costa", "Carla Mendes", "Diego Alves", "Elisa Rocha",
	"Felipe Nunes", "Gabriela Lima", "Hugo Teixeira", "Isabel Freitas", "João Ribeiro",
}

// Seed creates n demo accounts with stable documents.
func Seed(ctx context.Context, s *Store, n int) error {
	for i := range n {
		name := seedNames[i%len(seedNames)]
		if i >= len(seedNames) {
			name = fmt.Sprintf("%s %d", name, i/len(seedNames)+1)
		}
		if _, err := s.CreateAccount(ctx, fmt.Sprintf("%011d", 10000000000+i), name); err != nil {
			return fmt.Errorf("seed account %d: %w", i, err)
		}
	}
	return nil
}
