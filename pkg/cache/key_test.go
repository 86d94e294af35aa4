package cache

import (
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "consumer tier",
			key:  CacheKey{Tier: "consumer", CoinID: "bitcoin"},
			want: "price:consumer:bitcoin",
		},
		{
			name: "edge tier",
			key:  CacheKey{Tier: "edge", CoinID: "usd-coin"},
			want: "price:edge:usd-coin",
		},
		{
			name: "no tier",
			key:  CacheKey{CoinID: "ethereum"},
			want: "price:ethereum",
		},
		{
			name: "coin id used verbatim",
			key:  CacheKey{Tier: "consumer", CoinID: "Bitcoin"},
			want: "price:consumer:Bitcoin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("CacheKey.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{Tier: "consumer", CoinID: "bitcoin"}

	first := key.String()
	for i := 0; i < 100; i++ {
		if got := key.String(); got != first {
			t.Fatalf("CacheKey.String() not deterministic: %q vs %q", got, first)
		}
	}
}
